package chat

import (
	"regexp"
	"strings"
)

// DeployParams is the transient parameter set extracted from free-form chat
// text. Fields are best-effort; only Name/Symbol/Wallet matter for dispatch.
type DeployParams struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Wallet      string `json:"wallet"`
	WebsiteURL  string `json:"website_url"`
	TwitterURL  string `json:"twitter_url"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

var (
	deployKeywordRe = regexp.MustCompile(`(?i)\b(deploy|launch|create (a )?token)\b`)

	nameFieldRe    = regexp.MustCompile(`(?i)\bname\s*[:=]\s*"?([^\n"]+)`)
	namedRe        = regexp.MustCompile(`(?i)\b(?:called|named)\s+(?:"([^"]+)"|([A-Za-z0-9._-]+))`)
	symbolFieldRe  = regexp.MustCompile(`(?i)\b(?:symbol|ticker)\s*[:=]\s*\$?"?([A-Za-z0-9]{1,12})`)
	dollarTickerRe = regexp.MustCompile(`\$([A-Z][A-Z0-9]{1,9})\b`)
	upperWordRe    = regexp.MustCompile(`\b([A-Z]{2,10})\b`)
	walletFieldRe  = regexp.MustCompile(`(?i)\b(?:wallet|recipient|admin)\s*[:=]?\s*(0x[0-9a-fA-F]{40})`)
	bareAddressRe  = regexp.MustCompile(`(0x[0-9a-fA-F]{40})`)
	websiteFieldRe = regexp.MustCompile(`(?i)\bwebsite\s*[:=]\s*(\S+)`)
	twitterFieldRe = regexp.MustCompile(`(?i)\b(?:twitter|x)\s*[:=]\s*(\S+)`)
	descFieldRe    = regexp.MustCompile(`(?i)\bdescription\s*[:=]\s*"?([^\n"]+)`)
	imageFieldRe   = regexp.MustCompile(`(?i)\b(?:image|img|logo)\s*[:=]\s*(\S+)`)
	urlRe          = regexp.MustCompile(`https?://\S+`)

	// Trailing "Key: ..." segments captured by the open-ended field regexes.
	fieldLabelRe = regexp.MustCompile(`(?i)\s+(?:symbol|ticker|name|wallet|recipient|admin|website|twitter|description|image|img|logo)\s*[:=].*$`)

	imageExtRe = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|svg)(\?\S*)?$`)
)

// ParseDeployIntent returns the extracted parameters when text looks like a
// deploy request, or nil otherwise. Detection is keyword presence; every
// field extraction is an independent best-effort regex, so prose containing
// capitalized words or embedded addresses can misfire. A result is only
// returned when at least a name or symbol was found.
func ParseDeployIntent(text string) *DeployParams {
	if !deployKeywordRe.MatchString(text) {
		return nil
	}

	params := &DeployParams{
		Name:        extractName(text),
		Symbol:      extractSymbol(text),
		Wallet:      extractWallet(text),
		WebsiteURL:  extractWebsite(text),
		TwitterURL:  extractTwitter(text),
		Description: extractDescription(text),
		ImageURL:    extractImage(text),
	}

	if params.Name == "" && params.Symbol == "" {
		return nil
	}
	return params
}

func extractName(text string) string {
	if m := nameFieldRe.FindStringSubmatch(text); m != nil {
		return trimFieldValue(m[1])
	}
	if m := namedRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[2])
	}
	return ""
}

func extractSymbol(text string) string {
	if m := symbolFieldRe.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := dollarTickerRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	// Heuristic: an isolated all-caps token reads like a ticker. This can
	// capture an unrelated capitalized word in ordinary prose.
	if m := upperWordRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractWallet(text string) string {
	if m := walletFieldRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := bareAddressRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractWebsite(text string) string {
	if m := websiteFieldRe.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], `."',`)
	}
	for _, u := range urlRe.FindAllString(text, -1) {
		u = strings.TrimRight(u, `."',`)
		if isSocialURL(u) || imageExtRe.MatchString(u) {
			continue
		}
		return u
	}
	return ""
}

func extractTwitter(text string) string {
	if m := twitterFieldRe.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], `."',`)
	}
	for _, u := range urlRe.FindAllString(text, -1) {
		u = strings.TrimRight(u, `."',`)
		if isSocialURL(u) {
			return u
		}
	}
	return ""
}

func extractDescription(text string) string {
	if m := descFieldRe.FindStringSubmatch(text); m != nil {
		return trimFieldValue(m[1])
	}
	return ""
}

func extractImage(text string) string {
	if m := imageFieldRe.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], `."',`)
	}
	for _, u := range urlRe.FindAllString(text, -1) {
		u = strings.TrimRight(u, `."',`)
		if imageExtRe.MatchString(u) {
			return u
		}
	}
	return ""
}

func isSocialURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "twitter.com/") || strings.Contains(lower, "x.com/")
}

func trimFieldValue(v string) string {
	return strings.TrimSpace(fieldLabelRe.ReplaceAllString(v, ""))
}
