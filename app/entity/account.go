package entity

// GatewayAccount holds merchant credentials for one gateway. Built once
// at startup from configuration and treated as immutable; adapters copy
// it by value.
type GatewayAccount struct {
	// Name labels the account in results and logs. Defaults to the
	// gateway name when a merchant runs a single account.
	Name         string
	TerminalID   int64
	UserName     string
	UserPassword string
	TestTerminal bool
}
