package aamva

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// VerificationResponse is the parsed body of a DLDV verification call.
type VerificationResponse struct {
	TransactionID string
	// Indicators holds every *MatchIndicator element present in the response.
	// An absent key means the indicator was not returned.
	Indicators map[string]bool
}

// VerificationError is a SOAP fault or otherwise unusable response. Its
// message carries the AAMVA exception id text used for classification.
type VerificationError struct {
	Message string
}

func (e *VerificationError) Error() string {
	return "aamva verification error: " + e.Message
}

// ParseVerificationResponse extracts match indicators and the transaction
// locator id. Namespaces are ignored; only local element names matter.
func ParseVerificationResponse(body []byte) (*VerificationResponse, error) {
	resp := &VerificationResponse{Indicators: make(map[string]bool)}
	fault, err := walk(body, func(name, text string) {
		switch {
		case name == "TransactionLocatorId" || name == "TransactionLocatorID":
			resp.TransactionID = strings.TrimSpace(text)
		case strings.HasSuffix(name, "MatchIndicator"):
			resp.Indicators[name] = strings.TrimSpace(text) == "true"
		}
	})
	if err != nil {
		return nil, &VerificationError{Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if fault != "" {
		return nil, &VerificationError{Message: fault}
	}
	return resp, nil
}

// ParseFault returns the fault text of a SOAP error body, or "".
func ParseFault(body []byte) string {
	fault, _ := walk(body, func(string, string) {})
	return fault
}

// walk visits every leaf element and collects SOAP fault text.
func walk(body []byte, visit func(name, text string)) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		stack   []string
		text    strings.Builder
		faults  []string
		inFault int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if t.Name.Local == "Fault" {
				inFault++
			}
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := strings.TrimSpace(text.String())
			if inFault > 0 && value != "" {
				faults = append(faults, name+": "+value)
			}
			if name == "Fault" {
				inFault--
			}
			visit(name, value)
			text.Reset()
		}
	}
	return strings.Join(faults, ", "), nil
}
