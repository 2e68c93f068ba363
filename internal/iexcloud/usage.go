package iexcloud

import (
	"net/http"
	"strconv"
)

// UsageReport carries the usage-accounting counters IEX Cloud attaches to
// every response as headers. It is best-effort diagnostic data: a missing or
// unparsable header counts as zero and never fails a fetch.
type UsageReport struct {
	MessagesUsed        int `json:"iexcloud-messages-used"`
	CreditsUsed         int `json:"iexcloud-credits-used"`
	PremiumMessagesUsed int `json:"iexcloud-premium-messages-used"`
	PremiumCreditsUsed  int `json:"iexcloud-premium-credits-used"`
}

func usageFromHeader(h http.Header) UsageReport {
	return UsageReport{
		MessagesUsed:        headerInt(h, "iexcloud-messages-used"),
		CreditsUsed:         headerInt(h, "iexcloud-credits-used"),
		PremiumMessagesUsed: headerInt(h, "iexcloud-premium-messages-used"),
		PremiumCreditsUsed:  headerInt(h, "iexcloud-premium-credits-used"),
	}
}

func headerInt(h http.Header, key string) int {
	v := h.Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
