// Package plan defines the fixed, ordered battery of autodiscovery tests
// and the DNS record templates used to remediate missing records.
package plan

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"regexp"

	"github.com/optimode/autodiscover/types"
)

// Kind identifies how a Spec is probed.
type Kind string

const (
	KindSRV      Kind = "SRV"
	KindTXT      Kind = "TXT"
	KindCNAME    Kind = "CNAME"
	KindHTTP     Kind = "HTTP"
	KindAuthHTTP Kind = "AUTH"
)

// IsDNS reports whether k is answered by a DNS lookup.
func (k Kind) IsDNS() bool {
	return k == KindSRV || k == KindTXT || k == KindCNAME
}

// MethodPropfind is the WebDAV PROPFIND method.
const MethodPropfind = "PROPFIND"

// DAVHomePath is the Zimbra DAV home advertised in the TXT records.
const DAVHomePath = "/service/dav/home/"

// Spec describes one test of the plan.
type Spec struct {
	Name string
	Kind Kind

	// DNS probes
	Host      string // queried name, no trailing dot
	ExpectTXT string // advisory only, never gating

	// HTTP probes
	Method          string
	URL             string
	Headers         map[string]string
	Body            string
	FollowRedirects bool
	Pass            []int
	Fail            []int

	// Authenticated probes: a match means the service answered for real.
	Expect *regexp.Regexp

	// Record is the remediation template for DNS-backed tests, nil otherwise.
	Record *RecordTemplate
}

// Credentials enable the authenticated block of the plan.
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether no usable credentials were supplied.
func (c *Credentials) Empty() bool {
	return c == nil || c.Username == "" || c.Password == ""
}

func (c *Credentials) basicAuth() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Password))
}

// Test names. These are the ledger keys and the cache file keys.
const (
	NameSRVIMAPS        = "DNS SRV _imaps._tcp"
	NameSRVSubmission   = "DNS SRV _submission._tcp"
	NameSRVAutodiscover = "DNS SRV _autodiscover._tcp"
	NameSRVCalDAVS      = "DNS SRV _caldavs._tcp"
	NameSRVCardDAVS     = "DNS SRV _carddavs._tcp"
	NameTXTCalDAVS      = "DNS TXT _caldavs._tcp"
	NameTXTCardDAVS     = "DNS TXT _carddavs._tcp"
	NameCNAMEAutodisc   = "DNS CNAME autodiscover"

	NameHTTPActiveSync = "HTTP ActiveSync Autodiscover"
	NameHTTPAutoconfig = "HTTP Thunderbird Autoconfig"
	NameHTTPCardDAV    = "HTTP CardDAV well-known"
	NameHTTPCalDAV     = "HTTP CalDAV well-known"
	NameHTTPDAV        = "HTTP DAV service"

	NameAuthActiveSync = "AUTH ActiveSync Autodiscover"
	NameAuthCardDAV    = "AUTH CardDAV PROPFIND"
	NameAuthCalDAV     = "AUTH CalDAV PROPFIND"
)

// dnsTests lists the DNS-backed tests in plan order.
var dnsTests = []struct {
	name   string
	kind   Kind
	record RecordTemplate
}{
	{NameSRVIMAPS, KindSRV, srvTemplate("_imaps._tcp", 993)},
	{NameSRVSubmission, KindSRV, srvTemplate("_submission._tcp", 587)},
	{NameSRVAutodiscover, KindSRV, srvTemplate("_autodiscover._tcp", 443)},
	{NameSRVCalDAVS, KindSRV, srvTemplate("_caldavs._tcp", 443)},
	{NameSRVCardDAVS, KindSRV, srvTemplate("_carddavs._tcp", 443)},
	{NameTXTCalDAVS, KindTXT, txtTemplate("_caldavs._tcp")},
	{NameTXTCardDAVS, KindTXT, txtTemplate("_carddavs._tcp")},
	{NameCNAMEAutodisc, KindCNAME, cnameTemplate("autodiscover")},
}

var (
	passActiveSync = []int{http.StatusOK, http.StatusUnauthorized, http.StatusMethodNotAllowed}
	passOK         = []int{http.StatusOK}
	passWellKnown  = []int{http.StatusMovedPermanently, http.StatusFound, http.StatusOK}
	failNotFound   = []int{http.StatusNotFound}

	expectAutodiscover = regexp.MustCompile(`(?i)<([a-z0-9]+:)?Autodiscover[\s>]`)
	expectMultistatus  = regexp.MustCompile(`(?i)<([a-z0-9]+:)?multistatus[\s>]`)
)

const activeSyncRequest = `<?xml version="1.0" encoding="utf-8"?>
<Autodiscover xmlns="http://schemas.microsoft.com/exchange/autodiscover/mobilesync/requestschema/2006">
  <Request>
    <EMailAddress>{email}</EMailAddress>
    <AcceptableResponseSchema>http://schemas.microsoft.com/exchange/autodiscover/mobilesync/responseschema/2006</AcceptableResponseSchema>
  </Request>
</Autodiscover>`

const cardDAVPropfind = `<?xml version="1.0" encoding="utf-8"?>
<D:propfind xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:carddav">
  <D:prop>
    <D:current-user-principal/>
    <C:addressbook-home-set/>
  </D:prop>
</D:propfind>`

const calDAVPropfind = `<?xml version="1.0" encoding="utf-8"?>
<D:propfind xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:current-user-principal/>
    <C:calendar-home-set/>
  </D:prop>
</D:propfind>`

// Build returns the ordered plan for t. The authenticated block is
// appended only when creds is non-empty.
func Build(t types.Target, creds *Credentials) []Spec {
	specs := make([]Spec, 0, len(dnsTests)+8)

	for _, d := range dnsTests {
		rec := d.record
		s := Spec{
			Name:   d.name,
			Kind:   d.kind,
			Host:   FQDN(t.Domain, rec.Name),
			Record: &rec,
		}
		if d.kind == KindTXT {
			s.ExpectTXT = rec.Value
		}
		specs = append(specs, s)
	}

	mail := "https://" + t.MailServer
	activeSyncURL := mail + "/Autodiscover/Autodiscover.xml"

	specs = append(specs,
		Spec{
			Name:            NameHTTPActiveSync,
			Kind:            KindHTTP,
			Method:          http.MethodHead,
			URL:             activeSyncURL,
			FollowRedirects: true,
			Pass:            passActiveSync,
			Fail:            failNotFound,
		},
		Spec{
			Name:            NameHTTPAutoconfig,
			Kind:            KindHTTP,
			Method:          http.MethodGet,
			URL:             mail + "/.well-known/autoconfig/mail/config-v1.1.xml?emailaddress=" + url.QueryEscape(t.Email),
			FollowRedirects: true,
			Pass:            passOK,
			Fail:            failNotFound,
		},
		Spec{
			Name:   NameHTTPCardDAV,
			Kind:   KindHTTP,
			Method: http.MethodHead,
			URL:    "https://" + t.Domain + "/.well-known/carddav",
			Pass:   passWellKnown,
			Fail:   failNotFound,
		},
		Spec{
			Name:   NameHTTPCalDAV,
			Kind:   KindHTTP,
			Method: http.MethodHead,
			URL:    "https://" + t.Domain + "/.well-known/caldav",
			Pass:   passWellKnown,
			Fail:   failNotFound,
		},
		Spec{
			Name:            NameHTTPDAV,
			Kind:            KindHTTP,
			Method:          http.MethodHead,
			URL:             mail + DAVHomePath,
			FollowRedirects: true,
			Pass:            passActiveSync,
			Fail:            failNotFound,
		},
	)

	if creds.Empty() {
		return specs
	}

	auth := creds.basicAuth()
	davURL := mail + "/dav/" + url.PathEscape(t.Email) + "/"
	xmlHeaders := func(extra ...string) map[string]string {
		h := map[string]string{
			"Authorization": auth,
			"Content-Type":  "text/xml; charset=utf-8",
		}
		for i := 0; i+1 < len(extra); i += 2 {
			h[extra[i]] = extra[i+1]
		}
		return h
	}

	specs = append(specs,
		Spec{
			Name:            NameAuthActiveSync,
			Kind:            KindAuthHTTP,
			Method:          http.MethodPost,
			URL:             activeSyncURL,
			Headers:         xmlHeaders(),
			Body:            expand(activeSyncRequest, t),
			FollowRedirects: true,
			Expect:          expectAutodiscover,
		},
		Spec{
			Name:            NameAuthCardDAV,
			Kind:            KindAuthHTTP,
			Method:          MethodPropfind,
			URL:             davURL,
			Headers:         xmlHeaders("Depth", "0"),
			Body:            cardDAVPropfind,
			FollowRedirects: true,
			Expect:          expectMultistatus,
		},
		Spec{
			Name:            NameAuthCalDAV,
			Kind:            KindAuthHTTP,
			Method:          MethodPropfind,
			URL:             davURL + "Calendar/",
			Headers:         xmlHeaders("Depth", "0"),
			Body:            calDAVPropfind,
			FollowRedirects: true,
			Expect:          expectMultistatus,
		},
	)
	return specs
}

// Order returns every test name the plan can produce, in plan order.
func Order() []string {
	specs := Build(types.Target{Email: "order@example.com", Domain: "example.com", MailServer: "mail.example.com"},
		&Credentials{Username: "order", Password: "order"})
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
