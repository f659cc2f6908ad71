// Package check runs the individual tests of a plan and classifies them.
// There is one checker per probe kind (DNS, HTTP and authenticated HTTP);
// each turns a plan.Spec into exactly one types.Outcome and never fails.
// The Classify functions hold the acceptance rules and are pure.
//
// These types can be used directly, but the recommended approach is to
// use the Validator from the github.com/optimode/autodiscover package.
package check
