// Package pas talks to the policy administration system over its SOAP-style
// XML web services and adapts it to the transaction ports.
package pas

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pasbridge/platform/config"
	"pasbridge/platform/logger"
	"pasbridge/platform/metrics"
)

const (
	soapNS       = "http://schemas.xmlsoap.org/soap/envelope/"
	xsiNS        = "http://www.w3.org/2001/XMLSchema-instance"
	xsdNS        = "http://www.w3.org/2001/XMLSchema"
	tokenContext = "pasbridge"

	maxResponseBytes = 16 << 20
)

// Client performs single SOAP calls. It knows nothing about sessions.
type Client struct {
	httpClient *http.Client
	baseURL    string
	namespace  string
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a PAS client from configuration.
func NewClient(cfg config.PASConfig, log *logger.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.GetPASTimeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ns := cfg.GetPASNamespace()
	if !strings.HasSuffix(ns, "/") {
		ns += "/"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.GetPASURL(), "/"),
		namespace:  ns,
		log:        log,
		metrics:    m,
	}
}

type soapHeader struct {
	TokenHeader struct {
		XMLNS   string `xml:"xmlns,attr"`
		Token   string `xml:"Token"`
		Context string `xml:"Context"`
	} `xml:"TokenHeader"`
}

type responseEnvelope struct {
	Body struct {
		Fault *Fault `xml:"Fault"`
		Inner []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// Call invokes service.method with req as the body element and decodes the
// response element into resp. An empty token omits the header.
func (c *Client) Call(ctx context.Context, service, method, token string, req, resp any) (err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		c.log.WithContext(ctx).PASCall(service, method, elapsed, err)
		c.metrics.ObservePASCall(service, method, elapsed, err)
	}()

	payload, err := c.encode(method, token, req)
	if err != nil {
		return fmt.Errorf("pas: encode %s.%s: %w", service, method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+service+".asmx", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("pas: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", `"`+c.namespace+method+`"`)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("pas: %s.%s: %w", service, method, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("pas: read %s.%s response: %w", service, method, err)
	}

	var env responseEnvelope
	if decodeErr := xml.Unmarshal(body, &env); decodeErr != nil {
		if httpResp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("pas: %s.%s: unexpected status %d", service, method, httpResp.StatusCode)
		}
		return fmt.Errorf("pas: decode %s.%s envelope: %w", service, method, decodeErr)
	}

	if env.Body.Fault != nil {
		fault := env.Body.Fault
		fault.Service = service
		fault.Method = method
		return fault
	}
	if httpResp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("pas: %s.%s: unexpected status %d", service, method, httpResp.StatusCode)
	}

	if resp == nil {
		return nil
	}
	if err := xml.Unmarshal(env.Body.Inner, resp); err != nil {
		return fmt.Errorf("pas: decode %s.%s result: %w", service, method, err)
	}
	return nil
}

func (c *Client) encode(method, token string, req any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	envelope := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:soap"}, Value: soapNS},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: xsiNS},
			{Name: xml.Name{Local: "xmlns:xsd"}, Value: xsdNS},
		},
	}
	if err := enc.EncodeToken(envelope); err != nil {
		return nil, err
	}

	if token != "" {
		var h soapHeader
		h.TokenHeader.XMLNS = c.namespace
		h.TokenHeader.Token = token
		h.TokenHeader.Context = tokenContext
		if err := enc.EncodeElement(h, xml.StartElement{Name: xml.Name{Local: "soap:Header"}}); err != nil {
			return nil, err
		}
	}

	body := xml.StartElement{Name: xml.Name{Local: "soap:Body"}}
	if err := enc.EncodeToken(body); err != nil {
		return nil, err
	}
	call := xml.StartElement{
		Name: xml.Name{Local: method},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: c.namespace}},
	}
	if req == nil {
		req = struct{}{}
	}
	if err := enc.EncodeElement(req, call); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(body.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(envelope.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
