package pdf

import "fmt"

// EmptyInvoiceError is returned for an invoice without line items
type EmptyInvoiceError struct {
	InvoiceNumber string
}

func (e *EmptyInvoiceError) Error() string {
	return fmt.Sprintf("invoice %s has no line items", e.InvoiceNumber)
}

// InvalidAmountError names the first amount that is NaN or infinite
type InvalidAmountError struct {
	Field string
	Value float64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invoice amount %s is not a finite number: %v", e.Field, e.Value)
}

type TooManyItemsError struct {
	Count int
	Max   int
}

func (e *TooManyItemsError) Error() string {
	return fmt.Sprintf("invoice has %d line items, at most %d can be rendered", e.Count, e.Max)
}

type PageSizeError struct {
	PageSize string
}

func (e *PageSizeError) Error() string {
	return fmt.Sprintf("unsupported page size %q", e.PageSize)
}
