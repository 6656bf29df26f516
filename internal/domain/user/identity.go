package user

type UserState string

const (
	UserPreRegistered UserState = "pre_registered"
	UserRegistered    UserState = "registered"
	UserDeleted       UserState = "deleted"
)

type LoginState string

const (
	LoginActive  LoginState = "active"
	LoginDeleted LoginState = "deleted"
)

type ChannelType string

const ChannelTypeEmail ChannelType = "email"

type ChannelState string

const (
	ChannelActive      ChannelState = "active"
	ChannelUnconfirmed ChannelState = "unconfirmed"
	ChannelRetired     ChannelState = "retired"
)

// User is the profile a login authenticates. ManagedName holds the last
// name written by an import; once DisplayName diverges from it the name is
// considered manually overridden.
type User struct {
	ID              string
	DisplayName     string
	ManagedName     string
	WorkflowState   UserState
	CreationBatchID string
}

func (u User) NameIsManaged() bool {
	return u.ManagedName != "" && u.ManagedName == u.DisplayName
}

type Login struct {
	ID                    string
	UserID                string
	AccountID             string
	UniqueID              string
	ExternalSourceID      string
	ExternalUserID        string
	WorkflowState         LoginState
	CryptedPassword       string
	PasswordAutoGenerated bool
	ExternalPasswordHash  string
	PersistenceToken      string
	LinkedChannelID       string
	BatchID               string
}

type CommunicationChannel struct {
	ID            string
	UserID        string
	LoginID       string
	Path          string
	Type          ChannelType
	WorkflowState ChannelState
}

type UserProfile struct {
	User   User
	Logins []Login
}
