package faceauthpb

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain is the errdetails domain of bridge rejections.
const ErrorDomain = "faceauth"

// RequestIDHeader carries the request id of a call in response headers.
const RequestIDHeader = "x-request-id"

// RejectionStatus encodes a rejected call.
func RejectionStatus(code, message, requestID string) error {
	st := status.New(codes.Aborted, message)
	withDetails, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   code,
		Domain:   ErrorDomain,
		Metadata: map[string]string{"request_id": requestID},
	})
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// RejectionFromStatus decodes an error built by RejectionStatus.
func RejectionFromStatus(err error) (code, message string, ok bool) {
	st, isStatus := status.FromError(err)
	if !isStatus || st.Code() != codes.Aborted {
		return "", "", false
	}
	for _, detail := range st.Details() {
		if info, isInfo := detail.(*errdetails.ErrorInfo); isInfo && info.GetDomain() == ErrorDomain {
			return info.GetReason(), st.Message(), true
		}
	}
	return "", "", false
}
