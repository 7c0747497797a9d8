package payroll

// ComputePay derives gross and net pay from the monetary fields. A negative
// net rejects the whole update rather than clamping.
func ComputePay(baseSalary, allowances, deductions float64) (gross, net float64, err error) {
	gross = baseSalary + allowances
	net = gross - deductions
	if net < 0 {
		return 0, 0, ErrNegativeNetPay
	}
	return gross, net, nil
}
