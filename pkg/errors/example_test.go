package errors_test

import (
	"fmt"

	"github.com/DeBrosOfficial/pubsub-client/pkg/errors"
)

// Example demonstrates classifying an error status returned by the service.
func ExampleNewServerError() {
	err := errors.NewServerError(429, "", "Too many requests")
	fmt.Println(err.Error())
	fmt.Println("Retry:", errors.ShouldRetry(err))
	// Output:
	// Too many requests (status 429)
	// Retry: true
}

// Example demonstrates wrapping errors with context.
func ExampleWrap() {
	err := errors.Wrap(errors.NewSigningError("secret key is empty", nil), "sign subscribe request")

	fmt.Println(err.Error())
	fmt.Println("Is signing:", errors.IsSigning(err))
	fmt.Println("Retry:", errors.ShouldRetry(err))
	// Output:
	// sign subscribe request: secret key is empty
	// Is signing: true
	// Retry: false
}
