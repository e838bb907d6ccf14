package gateway

// mellatResultTable maps the bank's result codes to the default
// English texts. Deployment-specific wording comes from the Messages
// overrides for the handful of codes that change control flow; the rest
// are looked up here, with unknown codes falling back to the
// raw-code-embedding message.
var mellatResultTable = map[string]string{
	"0":   "Payment completed successfully.",
	"11":  "The card number is invalid.",
	"12":  "The card balance is insufficient.",
	"13":  "The card password is incorrect.",
	"14":  "Too many incorrect password attempts.",
	"15":  "The card is invalid.",
	"16":  "Too many card withdrawals.",
	"17":  "The payment was cancelled by the user.",
	"18":  "The card has expired.",
	"19":  "The withdrawal amount is too high.",
	"21":  "The merchant is invalid.",
	"23":  "A security violation occurred.",
	"24":  "The merchant credentials are invalid.",
	"25":  "The amount is invalid.",
	"31":  "The response is invalid.",
	"32":  "The entered format is invalid.",
	"33":  "The account is invalid.",
	"34":  "A system error occurred.",
	"35":  "The business date is invalid.",
	"41":  "The order id is a duplicate.",
	"42":  "No matching sale transaction was found.",
	"43":  "A verify request has already been submitted for this transaction.",
	"44":  "The verify request does not match the sale request.",
	"45":  "The transaction has already been settled.",
	"46":  "The transaction has not been settled.",
	"47":  "No settle transaction was found.",
	"48":  "The transaction has already been reversed.",
	"49":  "No matching refund transaction was found.",
	"51":  "The transaction is a duplicate.",
	"54":  "The reference transaction does not exist.",
	"55":  "The transaction is invalid.",
	"61":  "The refund failed.",
	"111": "The card issuer is invalid.",
	"112": "A card issuer switch error occurred.",
	"113": "No response was received from the card issuer.",
	"114": "The card holder is not permitted to perform this transaction.",
	"412": "The bill identifier is incorrect.",
	"413": "The payment identifier is incorrect.",
	"414": "The bill issuing organization is invalid.",
	"415": "The session has timed out.",
	"416": "A data lookup error occurred.",
	"417": "The payer identifier is invalid.",
	"418": "A customer definition error occurred.",
	"419": "The number of data entries has exceeded the limit.",
	"421": "The IP address is invalid.",
}
