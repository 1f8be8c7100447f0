package pdf

import "strings"

type Locale string

const (
	LocaleLT Locale = "lt"
	LocaleEN Locale = "en"
)

// ParseLocale maps a request value to a supported locale, or fallback
func ParseLocale(value string, fallback Locale) Locale {
	switch Locale(strings.ToLower(strings.TrimSpace(value))) {
	case LocaleLT:
		return LocaleLT
	case LocaleEN:
		return LocaleEN
	}
	return fallback
}

type labels struct {
	invoiceTitle   string
	headerFallback string
	seriesNumber   string
	issueDate      string
	dueDate        string
	orderNumber    string
	seller         string
	buyer          string
	document       string
	companyCode    string
	vatCode        string
	address        string
	email          string
	phone          string
	columns        [6]string
	subtotal       string
	vatRate        string
	vatAmount      string
	totalInclVat   string
	advancePaid    string
	remainingDue   string
	bankDetails    string
	bank           string
	account        string
	swift          string
	notes          string
	terms          string
	page           string
}

var labelSets = map[Locale]labels{
	LocaleLT: {
		invoiceTitle:   "PVM SĄSKAITA FAKTŪRA",
		headerFallback: "Gamyba – Shou sugi ban",
		seriesNumber:   "Serija / Nr.:",
		issueDate:      "Data:",
		dueDate:        "Apmokėti iki:",
		orderNumber:    "Užsakymo Nr.:",
		seller:         "PARDAVĖJAS",
		buyer:          "PIRKĖJAS",
		document:       "DOKUMENTAS",
		companyCode:    "Į. k.:",
		vatCode:        "PVM mok. kodas:",
		address:        "Adresas:",
		email:          "El. paštas:",
		phone:          "Tel.:",
		columns:        [6]string{"Prekė", "Kiekis", "Vnt.", "Vnt. kaina", "PVM", "Suma be PVM"},
		subtotal:       "Suma be PVM:",
		vatRate:        "PVM %s:",
		vatAmount:      "PVM suma:",
		totalInclVat:   "Suma su PVM:",
		advancePaid:    "Avansas apmokėtas:",
		remainingDue:   "Mokėtina suma:",
		bankDetails:    "Banko rekvizitai",
		bank:           "Bankas:",
		account:        "Sąskaita:",
		swift:          "SWIFT:",
		notes:          "Pastabos",
		terms:          "Sąlygos",
		page:           "Puslapis %d iš %s",
	},
	LocaleEN: {
		invoiceTitle:   "VAT INVOICE",
		headerFallback: "Production - Shou sugi ban",
		seriesNumber:   "Series / No:",
		issueDate:      "Date:",
		dueDate:        "Due date:",
		orderNumber:    "Order No:",
		seller:         "SELLER",
		buyer:          "BUYER",
		document:       "DOCUMENT",
		companyCode:    "Company code:",
		vatCode:        "VAT code:",
		address:        "Address:",
		email:          "Email:",
		phone:          "Phone:",
		columns:        [6]string{"Item", "Quantity", "Unit", "Unit price", "VAT", "Total excl. VAT"},
		subtotal:       "Subtotal (excl. VAT):",
		vatRate:        "VAT %s:",
		vatAmount:      "VAT amount:",
		totalInclVat:   "Total incl. VAT:",
		advancePaid:    "Advance paid:",
		remainingDue:   "Remaining due:",
		bankDetails:    "Bank details",
		bank:           "Bank:",
		account:        "Account:",
		swift:          "SWIFT:",
		notes:          "Notes",
		terms:          "Terms",
		page:           "Page %d of %s",
	},
}

func labelsFor(locale Locale) labels {
	if l, ok := labelSets[locale]; ok {
		return l
	}
	return labelSets[LocaleLT]
}
