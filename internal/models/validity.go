package models

// IsValidAccountType reports whether t is a known account type.
func IsValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeInvestment, AccountTypeRetirement,
		AccountTypeCreditCard, AccountTypeLoan, AccountTypeBusiness, AccountTypeOther:
		return true
	}
	return false
}

// IsValidOwnership reports whether o is a known ownership designation.
func IsValidOwnership(o Ownership) bool {
	switch o {
	case OwnershipJoint, OwnershipPetitioner, OwnershipRespondent, OwnershipBusiness:
		return true
	}
	return false
}

// IsValidTransactionType reports whether t is a known transaction type.
func IsValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferIn, TransactionTypeTransferOut,
		TransactionTypeInterest, TransactionTypeDividend, TransactionTypeFee, TransactionTypeAdjustment:
		return true
	}
	return false
}

// IsValidSourceType reports whether s is a known separate property source.
func IsValidSourceType(s SourceType) bool {
	switch s {
	case SourceInheritance, SourceGift, SourcePremarital, SourcePersonalInjury, SourceTrust, SourceOther:
		return true
	}
	return false
}
