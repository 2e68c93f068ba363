package model

// CompanyProfile is the company record returned by the upstream company
// endpoint. It is display-only and never persisted.
//
// The wire format uses camelCase keys; the upstream has been observed to
// spell the CEO field both "CEO" and "ceo", which encoding/json's
// case-insensitive key matching accepts either way.
type CompanyProfile struct {
	Symbol         string   `json:"symbol"`
	CompanyName    string   `json:"companyName"`
	Exchange       string   `json:"exchange"`
	Industry       string   `json:"industry"`
	Website        string   `json:"website"`
	Description    string   `json:"description"`
	CEO            string   `json:"ceo"`
	SecurityName   string   `json:"securityName"`
	IssueType      string   `json:"issueType"`
	Sector         string   `json:"sector"`
	PrimarySicCode *uint64  `json:"primarySicCode"`
	Employees      *uint64  `json:"employees"`
	Tags           []string `json:"tags"`
	Address        *string  `json:"address"`
	Address2       *string  `json:"address2"`
	State          *string  `json:"state"`
	City           *string  `json:"city"`
	Zip            *string  `json:"zip"`
	Country        *string  `json:"country"`
	Phone          *string  `json:"phone"`
}
