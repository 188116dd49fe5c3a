// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authcore

import "github.com/samber/oops"

// Error codes attached to errors returned by an Authenticator.
const (
	CodeInvalidConfig           = "AUTHCORE_INVALID_CONFIG"
	CodeInvalidSession          = "AUTHCORE_INVALID_SESSION"
	CodeFetchUserFailed         = "AUTHCORE_FETCH_USER_FAILED"
	CodeVerifyCredentialFailed  = "AUTHCORE_VERIFY_CREDENTIAL_FAILED"
	CodeCreateSessionFailed     = "AUTHCORE_CREATE_SESSION_FAILED"
	CodeFetchSessionFailed      = "AUTHCORE_FETCH_SESSION_FAILED"
	CodeVerifyTokenFailed       = "AUTHCORE_VERIFY_TOKEN_FAILED"
	CodeProcessCredentialFailed = "AUTHCORE_PROCESS_CREDENTIAL_FAILED"
	CodeCreateUserFailed        = "AUTHCORE_CREATE_USER_FAILED"
)

func errMissing(what string) error {
	return oops.Code(CodeInvalidConfig).
		With("strategy", what).
		Errorf("%s is required", what)
}
