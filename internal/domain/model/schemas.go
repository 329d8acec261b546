package model

// Schemas exchanged with the MateBot core REST API. Monetary amounts are
// integers in the smallest currency unit; timestamps are unix seconds.

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Alias struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	ApplicationID int64  `json:"application_id"`
	Username      string `json:"username"`
	Confirmed     bool   `json:"confirmed"`
}

type Application struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Created int64  `json:"created"`
}

type User struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Balance    int64   `json:"balance"`
	Permission bool    `json:"permission"`
	Active     bool    `json:"active"`
	External   bool    `json:"external"`
	VoucherID  *int64  `json:"voucher_id"`
	Aliases    []Alias `json:"aliases"`
	Created    int64   `json:"created"`
	Modified   int64   `json:"modified"`
}

// ConfirmedAliasIn reports whether the user holds a confirmed alias for the
// given application ID.
func (u *User) ConfirmedAliasIn(appID int64) bool {
	for _, a := range u.Aliases {
		if a.Confirmed && a.ApplicationID == appID {
			return true
		}
	}
	return false
}

// AliasIn reports whether the user holds any alias for the given application
// ID, confirmed or not.
func (u *User) AliasIn(appID int64) bool {
	for _, a := range u.Aliases {
		if a.ApplicationID == appID {
			return true
		}
	}
	return false
}

type Transaction struct {
	ID                 int64  `json:"id"`
	Sender             User   `json:"sender"`
	Receiver           User   `json:"receiver"`
	Amount             int64  `json:"amount"`
	Reason             string `json:"reason"`
	MultiTransactionID *int64 `json:"multi_transaction_id"`
	Timestamp          int64  `json:"timestamp"`
}

type MultiTransaction struct {
	ID           int64         `json:"id"`
	BaseAmount   int64         `json:"base_amount"`
	TotalAmount  int64         `json:"total_amount"`
	Transactions []Transaction `json:"transactions"`
	Timestamp    int64         `json:"timestamp"`
}

type Consumable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

type Vote struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	BallotID int64  `json:"ballot_id"`
	Vote     bool   `json:"vote"`
	Modified int64  `json:"modified"`
}

type Ballot struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Votes    []Vote `json:"votes"`
}

type Refund struct {
	ID          int64        `json:"id"`
	Amount      int64        `json:"amount"`
	Description string       `json:"description"`
	Creator     User         `json:"creator"`
	Active      bool         `json:"active"`
	Allowed     *bool        `json:"allowed"`
	BallotID    int64        `json:"ballot_id"`
	Votes       []Vote       `json:"votes"`
	Transaction *Transaction `json:"transaction"`
	Created     int64        `json:"created"`
	Modified    int64        `json:"modified"`
}

type PollVariant string

const (
	PollGetInternal    PollVariant = "get_internal"
	PollGetPermission  PollVariant = "get_permission"
	PollLoanPermission PollVariant = "loan_permission"
)

type Poll struct {
	ID       int64       `json:"id"`
	Active   bool        `json:"active"`
	Accepted *bool       `json:"accepted"`
	Variant  PollVariant `json:"variant"`
	User     User        `json:"user"`
	Creator  User        `json:"creator"`
	BallotID int64       `json:"ballot_id"`
	Votes    []Vote      `json:"votes"`
	Created  int64       `json:"created"`
	Modified int64       `json:"modified"`
}

type CommunismParticipant struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Quantity int64  `json:"quantity"`
}

type Communism struct {
	ID           int64                  `json:"id"`
	Amount       int64                  `json:"amount"`
	Description  string                 `json:"description"`
	CreatorID    int64                  `json:"creator_id"`
	Active       bool                   `json:"active"`
	Created      int64                  `json:"created"`
	Modified     int64                  `json:"modified"`
	Participants []CommunismParticipant `json:"participants"`
	MultiTx      *MultiTransaction      `json:"multi_transaction"`
}

type GeneralConfig struct {
	MinRefundApproves          int   `json:"min_refund_approves"`
	MinRefundDisapproves       int   `json:"min_refund_disapproves"`
	MinMembershipApproves      int   `json:"min_membership_approves"`
	MinMembershipDisapproves   int   `json:"min_membership_disapproves"`
	MaxParallelDebtors         int   `json:"max_parallel_debtors"`
	MaxSimultaneousConsumption int64 `json:"max_simultaneous_consumption"`
	MaxTransactionAmount       int64 `json:"max_transaction_amount"`
}

type Status struct {
	StartupTimestamp int64  `json:"startup"`
	APIVersion       int    `json:"api_version"`
	ProjectVersion   string `json:"project_version"`
}

// Callback is a registered push-notification receiver of the core API.
type Callback struct {
	ID            int64  `json:"id"`
	URL           string `json:"url"`
	ApplicationID *int64 `json:"application_id"`
	SharedSecret  string `json:"shared_secret,omitempty"`
}
