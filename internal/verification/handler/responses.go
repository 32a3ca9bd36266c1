package handler

import "docverify/internal/verification"

// Response is the JSON body returned for every verdict.
type Response struct {
	VerificationID string `json:"verification_id"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	Rule           string `json:"rule,omitempty"`
	Field          string `json:"field,omitempty"`
	Document       string `json:"document,omitempty"`
	Message        string `json:"message"`
}

func toResponse(v verification.Verdict) Response {
	resp := Response{
		VerificationID: v.ID.String(),
		Status:         "rejected",
	}
	if v.Accepted {
		resp.Status = verification.StatusVerified
		resp.Message = "Verification successful"
		return resp
	}
	rej := v.Rejection
	resp.Reason = string(rej.Reason)
	resp.Rule = string(rej.Rule)
	resp.Field = rej.Field
	resp.Document = string(rej.Document)
	resp.Message = rej.Message
	return resp
}
