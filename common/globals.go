package common

const (
	TransactionTypeIncome   = "income"
	TransactionTypeExpense  = "expense"
	TransactionTypeTransfer = "transfer"

	FundTypeRestricted            = "restricted"
	FundTypeTemporarilyRestricted = "temporarily_restricted"
	FundTypeUnrestricted          = "unrestricted"

	TransferCategoryName = "Transfer"

	AuditActionCreate          = "create"
	AuditActionUpdate          = "update"
	AuditActionDelete          = "delete"
	AuditActionRestore         = "restore"
	AuditActionPermanentDelete = "permanent_delete"
	AuditActionTransfer        = "transfer"
	AuditActionDismiss         = "dismiss_duplicate"

	EntityTypeTransaction = "transaction"
	EntityTypeTransfer    = "transfer"
	EntityTypeDuplicate   = "duplicate_pair"
)
