package entity

// InvoiceSettings are the seller-side constants applied to every new invoice.
type InvoiceSettings struct {
	Series             string         `json:"series"`
	NumberWidth        int            `json:"number_width"`
	DueInDays          int            `json:"due_in_days"`
	VatRate            float64        `json:"vat_rate"`
	Currency           string         `json:"currency"`
	DocumentTitle      string         `json:"document_title"`
	Seller             InvoiceAddress `json:"seller"`
	BankName           string         `json:"bank_name"`
	BankAccount        string         `json:"bank_account"`
	Swift              string         `json:"swift"`
	TermsAndConditions string         `json:"terms_and_conditions"`
}

func DefaultInvoiceSettings() *InvoiceSettings {
	return &InvoiceSettings{
		Series:      "YW",
		NumberWidth: 4,
		DueInDays:   14,
		VatRate:     0.21,
		Currency:    DefaultCurrency,
		Seller: InvoiceAddress{
			Name:        "UAB YAKIWOOD",
			CompanyName: "UAB YAKIWOOD",
			CompanyCode: "305636457",
			VatCode:     "LT100013670911",
			Address:     "Butrimonių g. 7",
			City:        "Kaunas",
			PostalCode:  "LT-50218",
			Country:     "Lietuva",
			Email:       "sales@yakiwood.eu",
		},
		BankName:           "Swedbank",
		BankAccount:        "LT00 0000 0000 0000 0000",
		Swift:              "HABALT22",
		TermsAndConditions: "Apmokėjimas per 14 dienų nuo sąskaitos išrašymo datos. Vėluojant apmokėti taikomos 0.05% delspinigiai nuo neapmokėtos sumos už kiekvieną uždelstą dieną.",
	}
}
