package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Internal        Category = "Internal"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Chatkit         Category = "Chatkit"
)

const (
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	ExternalService SubCategory = "ExternalService"
	TokenIssue      SubCategory = "TokenIssue"
	Command         SubCategory = "Command"
	RateLimiting    SubCategory = "RateLimiting"
)

const (
	AppName      ExtraKey = "AppName"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	UserID       ExtraKey = "UserId"
	Address      ExtraKey = "Address"
	ErrorMessage ExtraKey = "ErrorMessage"
)
