package documents

// Decision classifies a customer change on a transaction with respect
// to its rendered receipt.
type Decision string

const (
	// RegenNoOp: the assignment did not change, keep the receipt.
	RegenNoOp Decision = "noop"
	// RegenSafe: no customer was printed on the receipt yet, so
	// regenerating cannot misattribute anything.
	RegenSafe Decision = "safe"
	// RegenUnsafe: a receipt naming a different customer exists and
	// replacing it needs explicit confirmation.
	RegenUnsafe Decision = "unsafe"
)

// Decide compares the old and new customer assignment of a transaction
// and classifies the PDF regeneration. nil means no customer assigned.
func Decide(oldCustomer, newCustomer *string) Decision {
	switch {
	case oldCustomer == nil && newCustomer == nil:
		return RegenNoOp
	case oldCustomer != nil && newCustomer != nil && *oldCustomer == *newCustomer:
		return RegenNoOp
	case oldCustomer == nil:
		return RegenSafe
	default:
		return RegenUnsafe
	}
}
