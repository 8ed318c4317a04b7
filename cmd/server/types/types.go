package types

import "github.com/synetcore/go-did"

type CreateDIDResponse struct {
	DID string `json:"did"`
}

type NormalizeResponse struct {
	DID string `json:"did"`
}

type CreateDocumentBody struct {
	DID     string              `json:"did"`
	Options did.DocumentOptions `json:"options"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
