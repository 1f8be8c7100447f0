package config

import (
	"fmt"
	"log"
	"sync"
	"ywbilling/entity"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type Mongo struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"ywbilling"`
}

// Orders is the storefront database holding orders
type Orders struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Driver   string `yaml:"driver" env-default:"mysql"`
	HostName string `yaml:"hostname" env-default:"127.0.0.1"`
	UserName string `yaml:"username" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:""`
	Port     string `yaml:"port" env-default:"3306"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type Paysera struct {
	ProjectId         string `yaml:"project_id" env:"PAYSERA_PROJECT_ID" env-default:""`
	SignPassword      string `yaml:"sign_password" env:"PAYSERA_SIGN_PASSWORD" env-default:""`
	Version           string `yaml:"version" env:"PAYSERA_VERSION" env-default:"1.6"`
	Test              bool   `yaml:"test" env:"PAYSERA_TEST" env-default:"false"`
	AllowTestPayments bool   `yaml:"allow_test_payments" env:"PAYSERA_ALLOW_TEST_PAYMENTS" env-default:"false"`
	SiteURL           string `yaml:"site_url" env:"SITE_URL" env-default:"http://localhost:3000"`
	PayURL            string `yaml:"pay_url" env-default:"https://www.paysera.com/pay/"`
	Lang              string `yaml:"lang" env-default:"LIT"`
}

type StripeConfig struct {
	APIKey        string `yaml:"api_key" env:"STRIPE_SECRET_KEY" env-default:""`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET" env-default:""`
	SuccessURL    string `yaml:"success_url" env-default:""`
	CancelURL     string `yaml:"cancel_url" env-default:""`
}

type Seller struct {
	Name        string `yaml:"name" env-default:""`
	CompanyName string `yaml:"company_name" env-default:""`
	CompanyCode string `yaml:"company_code" env-default:""`
	VatCode     string `yaml:"vat_code" env-default:""`
	Address     string `yaml:"address" env-default:""`
	City        string `yaml:"city" env-default:""`
	PostalCode  string `yaml:"postal_code" env-default:""`
	Country     string `yaml:"country" env-default:""`
	Phone       string `yaml:"phone" env-default:""`
	Email       string `yaml:"email" env-default:""`
}

type Invoice struct {
	Series        string  `yaml:"series" env-default:"YW"`
	NumberWidth   int     `yaml:"number_width" env-default:"4"`
	DueInDays     int     `yaml:"due_in_days" env-default:"14"`
	VatRate       float64 `yaml:"vat_rate" env-default:"0.21"`
	Currency      string  `yaml:"currency" env-default:"EUR"`
	DocumentTitle string  `yaml:"document_title" env-default:""`
	Locale        string  `yaml:"locale" env-default:"lt"`
	PageSize      string  `yaml:"page_size" env-default:"A4"`
	MaxItems      int     `yaml:"max_items" env-default:"500"`
	Brand         string  `yaml:"brand" env-default:"YAKIWOOD"`
	Seller        Seller  `yaml:"seller"`
	BankName      string  `yaml:"bank_name" env-default:""`
	BankAccount   string  `yaml:"bank_account" env-default:""`
	Swift         string  `yaml:"swift" env-default:""`
	Terms         string  `yaml:"terms" env-default:""`
}

type Telegram struct {
	Enabled    bool    `yaml:"enabled" env-default:"false"`
	ApiKey     string  `yaml:"api_key" env-default:""`
	MinLevel   string  `yaml:"min_level" env-default:"warn"`
	AllowedIds []int64 `yaml:"allowed_ids"`
}

type Scheduler struct {
	Enabled bool   `yaml:"enabled" env-default:"true"`
	Overdue string `yaml:"overdue" env-default:"0 * * * *"`
}

type Config struct {
	Env       string       `yaml:"env" env-default:"local"`
	Location  string       `yaml:"location" env-default:"Europe/Vilnius"`
	Listen    Listen       `yaml:"listen"`
	Mongo     Mongo        `yaml:"mongo"`
	Orders    Orders       `yaml:"orders"`
	Paysera   Paysera      `yaml:"paysera"`
	Stripe    StripeConfig `yaml:"stripe"`
	Invoice   Invoice      `yaml:"invoice"`
	Telegram  Telegram     `yaml:"telegram"`
	Scheduler Scheduler    `yaml:"scheduler"`
}

// Settings merges the configured seller constants over the built-in ones
func (i Invoice) Settings() *entity.InvoiceSettings {
	s := entity.DefaultInvoiceSettings()
	if i.Series != "" {
		s.Series = i.Series
	}
	if i.NumberWidth > 0 {
		s.NumberWidth = i.NumberWidth
	}
	if i.DueInDays >= 0 {
		s.DueInDays = i.DueInDays
	}
	if i.VatRate >= 0 && i.VatRate < 1 {
		s.VatRate = i.VatRate
	}
	if i.Currency != "" {
		s.Currency = i.Currency
	}
	if i.DocumentTitle != "" {
		s.DocumentTitle = i.DocumentTitle
	}
	if i.Seller.Name != "" {
		s.Seller = entity.InvoiceAddress{
			Name:        i.Seller.Name,
			CompanyName: i.Seller.CompanyName,
			CompanyCode: i.Seller.CompanyCode,
			VatCode:     i.Seller.VatCode,
			Address:     i.Seller.Address,
			City:        i.Seller.City,
			PostalCode:  i.Seller.PostalCode,
			Country:     i.Seller.Country,
			Phone:       i.Seller.Phone,
			Email:       i.Seller.Email,
		}
	}
	if i.BankName != "" {
		s.BankName = i.BankName
	}
	if i.BankAccount != "" {
		s.BankAccount = i.BankAccount
	}
	if i.Swift != "" {
		s.Swift = i.Swift
	}
	if i.Terms != "" {
		s.TermsAndConditions = i.Terms
	}
	return s
}

var instance *Config
var once sync.Once

func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	return conf, nil
}

func MustLoad(path string) *Config {
	once.Do(func() {
		var err error
		instance, err = Load(path)
		if err != nil {
			log.Fatal(err)
		}
	})
	return instance
}
