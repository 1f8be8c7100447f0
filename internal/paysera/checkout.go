package paysera

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"ywbilling/entity"

	"github.com/biter777/countries"
	"github.com/shopspring/decimal"
)

const (
	DefaultVersion = "1.6"
	DefaultPayURL  = "https://www.paysera.com/pay/"
	DefaultLang    = "LIT"
	defaultSiteURL = "http://localhost:3000"
)

var (
	ErrNotConfigured = errors.New("paysera project or sign password not configured")
	ErrInvalidAmount = errors.New("order amount must be positive")
)

type Config struct {
	ProjectId         string
	SignPassword      string
	Version           string
	Test              bool
	AllowTestPayments bool
	SiteURL           string
	PayURL            string
	Lang              string
}

// Checkout builds signed payment requests and reads provider callbacks
type Checkout struct {
	conf Config
}

func New(conf Config) *Checkout {
	conf.ProjectId = strings.TrimSpace(conf.ProjectId)
	conf.SignPassword = strings.TrimSpace(conf.SignPassword)
	if conf.Version = strings.TrimSpace(conf.Version); conf.Version == "" {
		conf.Version = DefaultVersion
	}
	if conf.PayURL == "" {
		conf.PayURL = DefaultPayURL
	}
	if conf.Lang == "" {
		conf.Lang = DefaultLang
	}
	if conf.SiteURL = strings.TrimRight(strings.TrimSpace(conf.SiteURL), "/"); conf.SiteURL == "" {
		conf.SiteURL = defaultSiteURL
	}
	return &Checkout{conf: conf}
}

func (c *Checkout) Configured() bool {
	return c.conf.ProjectId != "" && c.conf.SignPassword != ""
}

func (c *Checkout) AllowTestPayments() bool {
	return c.conf.AllowTestPayments
}

// Cents converts a major unit amount to minor units, rounding half-up
func Cents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// RequestParams lists the payment request fields in the order the provider
// documents them
func (c *Checkout) RequestParams(order *entity.Order) Params {
	var test any
	if c.conf.Test {
		test = 1
	}
	var country any
	if code := countryCode(order.CustomerCountry); code != "" {
		country = code
	}
	var firstName any
	if order.CustomerName != "" {
		firstName = order.CustomerName
	}
	return Params{
		{"projectid", c.conf.ProjectId},
		{"orderid", order.Id},
		{"accepturl", fmt.Sprintf("%s/order-confirmation?provider=paysera&order_id=%s", c.conf.SiteURL, url.QueryEscape(order.Id))},
		{"cancelurl", c.conf.SiteURL + "/checkout"},
		{"callbackurl", c.conf.SiteURL + "/api/webhooks/paysera"},
		{"version", c.conf.Version},
		{"lang", c.conf.Lang},
		{"amount", Cents(order.Total)},
		{"currency", order.CurrencyCode()},
		{"p_email", order.CustomerEmail},
		{"p_firstname", firstName},
		{"p_countrycode", country},
		{"test", test},
	}
}

// PaymentURL returns the provider checkout link for an order and the
// amount charged in minor units
func (c *Checkout) PaymentURL(order *entity.Order) (string, int64, error) {
	if !c.Configured() {
		return "", 0, ErrNotConfigured
	}
	amount := Cents(order.Total)
	if amount <= 0 {
		return "", 0, ErrInvalidAmount
	}
	data := Encode(c.RequestParams(order))
	sign := Sign(data, c.conf.SignPassword)
	link := fmt.Sprintf("%s?data=%s&sign=%s", c.conf.PayURL, url.QueryEscape(data), url.QueryEscape(sign))
	return link, amount, nil
}

func countryCode(country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return ""
	}
	if len(country) == 2 {
		return strings.ToUpper(country)
	}
	code := countries.ByName(country).Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}
