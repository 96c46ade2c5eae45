package session

import (
	"net/http"

	"github.com/quantfold/tradekit/internal/apierrors"
)

// User-facing failure messages. The manager is the error boundary: no raw
// error string crosses into the UI, only these.
const (
	msgInvalidEmail        = "Please enter a valid email address."
	msgEmptyPassword       = "Please enter your password."
	msgOperationInProgress = "Another request is already in progress. Please wait."
	msgStorageFailure      = "Could not securely save your session. Please try again."
	msgUnexpectedResponse  = "The server returned an unexpected response. Please try again."
	msgTimeout             = "The request timed out. Please check your connection and try again."
	msgNetwork             = "Could not reach the server. Please check your connection."
	msgLoginRejected       = "Incorrect email or password."
	msgEmailTaken          = "An account with this email already exists."
	msgSignupRejected      = "We could not create your account with these details."
	msgServerError         = "Something went wrong on our side. Please try again later."
)

func loginMessageFor(err error) string {
	return authMessageFor(err, false)
}

func signupMessageFor(err error) string {
	return authMessageFor(err, true)
}

func authMessageFor(err error, signup bool) string {
	switch {
	case apierrors.IsTimeout(err):
		return msgTimeout
	case apierrors.IsNetwork(err):
		return msgNetwork
	case apierrors.IsDecode(err):
		return msgUnexpectedResponse
	case apierrors.IsStorage(err):
		return msgStorageFailure
	}

	status := apierrors.HTTPStatus(err)
	switch {
	case signup && status == http.StatusConflict:
		return msgEmailTaken
	case signup && (status == http.StatusBadRequest || apierrors.IsAuthRejected(err)):
		return msgSignupRejected
	case apierrors.IsAuthRejected(err) || status == http.StatusBadRequest:
		return msgLoginRejected
	}
	return msgServerError
}
