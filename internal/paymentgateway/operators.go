package paymentgateway

import (
	"errors"
	"fmt"
)

// ConfirmPaymentRequest is the provider-neutral shape of a mobile-money
// confirmation. BuildOperatorPayload translates it into the exact field
// names each operator's softpay endpoint expects.
type ConfirmPaymentRequest struct {
	CustomerName  string
	CustomerEmail string
	PhoneNumber   string
	PaymentToken  string
	OTP           string // required by OTP-based operators only
	Address       string // required by a few operators only
	Password      string // required by the provider wallet only
}

// FieldNames maps the neutral fields onto one operator's wire names.
// Empty name means the operator does not take that field. Static carries
// constant key/value pairs (e.g. wallet_provider).
type FieldNames struct {
	FullName string
	Email    string
	Phone    string
	Token    string
	OTP      string
	Address  string
	Password string
	Static   map[string]string
}

// Operator is one country/method pair supported by the gateway.
type Operator struct {
	Country       string
	Method        string
	Endpoint      string
	Fields        FieldNames
	NeedsOTP      bool
	NeedsPassword bool
}

// The table mirrors the provider's softpay endpoints one to one. Field
// casing is operator-defined and must not be normalized.
var operators = []Operator{
	{
		Country: "senegal", Method: "orange-money",
		Endpoint: "softpay/new-orange-money-senegal",
		Fields: FieldNames{
			FullName: "customer_name", Email: "customer_email",
			Phone: "phone_number", Token: "invoice_token",
			OTP:    "authorization_code",
			Static: map[string]string{"api_type": "OTPCODE"},
		},
		NeedsOTP: true,
	},
	{
		Country: "senegal", Method: "free-money",
		Endpoint: "softpay/free-money-senegal",
		Fields: FieldNames{
			FullName: "customer_name", Email: "customer_email",
			Phone: "phone_number", Token: "payment_token",
		},
	},
	{
		Country: "senegal", Method: "expresso",
		Endpoint: "softpay/expresso-senegal",
		Fields: FieldNames{
			FullName: "expresso_sn_fullName", Email: "expresso_sn_email",
			Phone: "expresso_sn_phone", Token: "payment_token",
		},
	},
	{
		Country: "senegal", Method: "wave",
		Endpoint: "softpay/wave-senegal",
		Fields: FieldNames{
			FullName: "wave_senegal_fullName", Email: "wave_senegal_email",
			Phone: "wave_senegal_phone", Token: "wave_senegal_payment_token",
		},
	},
	{
		Country: "senegal", Method: "wizall",
		Endpoint: "softpay/wizall-money-senegal",
		Fields: FieldNames{
			FullName: "customer_name", Email: "customer_email",
			Phone: "phone_number", Token: "invoice_token",
		},
	},
	{
		Country: "cote-divoire", Method: "orange-money",
		Endpoint: "softpay/orange-money-ci",
		Fields: FieldNames{
			FullName: "orange_money_ci_customer_fullname", Email: "orange_money_ci_email",
			Phone: "orange_money_ci_phone_number", Token: "payment_token",
			OTP: "orange_money_ci_otp",
		},
		NeedsOTP: true,
	},
	{
		Country: "cote-divoire", Method: "mtn",
		Endpoint: "softpay/mtn-ci",
		Fields: FieldNames{
			FullName: "mtn_ci_customer_fullname", Email: "mtn_ci_email",
			Phone: "mtn_ci_phone_number", Token: "payment_token",
			Static: map[string]string{"mtn_ci_wallet_provider": "MTNCI"},
		},
	},
	{
		Country: "cote-divoire", Method: "moov",
		Endpoint: "softpay/moov-ci",
		Fields: FieldNames{
			FullName: "moov_ci_customer_fullname", Email: "moov_ci_email",
			Phone: "moov_ci_phone_number", Token: "payment_token",
		},
	},
	{
		Country: "cote-divoire", Method: "wave",
		Endpoint: "softpay/wave-ci",
		Fields: FieldNames{
			FullName: "wave_ci_fullName", Email: "wave_ci_email",
			Phone: "wave_ci_phone", Token: "wave_ci_payment_token",
		},
	},
	{
		Country: "burkina-faso", Method: "orange-money",
		Endpoint: "softpay/orange-money-burkina",
		Fields: FieldNames{
			FullName: "name_bf", Email: "email_bf",
			Phone: "phone_bf", Token: "payment_token",
			OTP: "otp_code",
		},
		NeedsOTP: true,
	},
	{
		Country: "burkina-faso", Method: "moov",
		Endpoint: "softpay/moov-burkina",
		Fields: FieldNames{
			FullName: "moov_burkina_faso_fullName", Email: "moov_burkina_faso_email",
			Phone: "moov_burkina_faso_phone_number", Token: "moov_burkina_faso_payment_token",
		},
	},
	{
		Country: "benin", Method: "moov",
		Endpoint: "softpay/moov-benin",
		Fields: FieldNames{
			FullName: "moov_benin_customer_fullname", Email: "moov_benin_email",
			Phone: "moov_benin_phone_number", Token: "payment_token",
		},
	},
	{
		Country: "benin", Method: "mtn",
		Endpoint: "softpay/mtn-benin",
		Fields: FieldNames{
			FullName: "mtn_benin_customer_fullname", Email: "mtn_benin_email",
			Phone: "mtn_benin_phone_number", Token: "payment_token",
			Static: map[string]string{"mtn_benin_wallet_provider": "MTNBENIN"},
		},
	},
	{
		Country: "togo", Method: "t-money",
		Endpoint: "softpay/t-money-togo",
		Fields: FieldNames{
			FullName: "name_t_money", Email: "email_t_money",
			Phone: "phone_t_money", Token: "payment_token",
		},
	},
	{
		Country: "togo", Method: "moov",
		Endpoint: "softpay/moov-togo",
		Fields: FieldNames{
			FullName: "moov_togo_customer_fullname", Email: "moov_togo_email",
			Phone: "moov_togo_phone_number", Token: "payment_token",
			Address: "moov_togo_customer_address",
		},
	},
	{
		Country: "mali", Method: "orange-money",
		Endpoint: "softpay/orange-money-mali",
		Fields: FieldNames{
			FullName: "orange_money_mali_customer_fullname", Email: "orange_money_mali_email",
			Phone: "orange_money_mali_phone_number", Token: "payment_token",
			Address: "orange_money_mali_customer_address",
		},
	},
	{
		Country: "mali", Method: "moov",
		Endpoint: "softpay/moov-mali",
		Fields: FieldNames{
			FullName: "moov_ml_customer_fullname", Email: "moov_ml_email",
			Phone: "moov_ml_phone_number", Token: "payment_token",
			Address: "moov_ml_customer_address",
		},
	},
	{
		Country: "international", Method: "paydunya-wallet",
		Endpoint: "softpay/paydunya",
		Fields: FieldNames{
			FullName: "customer_name", Email: "customer_email",
			Phone: "phone_phone", Token: "invoice_token",
			Password: "password",
		},
		NeedsPassword: true,
	},
}

var operatorIndex = func() map[string]Operator {
	m := make(map[string]Operator, len(operators))
	for _, o := range operators {
		m[o.Country+"/"+o.Method] = o
	}
	return m
}()

// LookupOperator resolves a country/method pair against the table.
func LookupOperator(country, method string) (Operator, bool) {
	o, ok := operatorIndex[country+"/"+method]
	return o, ok
}

// Countries returns the supported country slugs, for input validation.
func Countries() []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range operators {
		if !seen[o.Country] {
			seen[o.Country] = true
			out = append(out, o.Country)
		}
	}
	return out
}

// ErrMissingField marks a confirmation request lacking a field the
// selected operator requires.
var ErrMissingField = errors.New("missing required payment field")

// BuildOperatorPayload translates the neutral request into the operator's
// wire format. Fields the operator does not take are dropped.
func BuildOperatorPayload(op Operator, req ConfirmPaymentRequest) (map[string]any, error) {
	if op.NeedsOTP && req.OTP == "" {
		return nil, fmt.Errorf("operator %s/%s requires an OTP code: %w", op.Country, op.Method, ErrMissingField)
	}
	if op.NeedsPassword && req.Password == "" {
		return nil, fmt.Errorf("operator %s/%s requires the wallet password: %w", op.Country, op.Method, ErrMissingField)
	}
	payload := map[string]any{}
	set := func(key, value string) {
		if key != "" {
			payload[key] = value
		}
	}
	set(op.Fields.FullName, req.CustomerName)
	set(op.Fields.Email, req.CustomerEmail)
	set(op.Fields.Phone, req.PhoneNumber)
	set(op.Fields.Token, req.PaymentToken)
	if req.OTP != "" {
		set(op.Fields.OTP, req.OTP)
	}
	set(op.Fields.Address, req.Address)
	if req.Password != "" {
		set(op.Fields.Password, req.Password)
	}
	for k, v := range op.Fields.Static {
		payload[k] = v
	}
	return payload, nil
}
