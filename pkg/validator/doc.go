// Package validator checks request values with composable rules.
//
//	err := validator.Apply(
//	    validator.Required("email", req.Email),
//	    validator.ValidEmail("email", req.Email),
//	    validator.StrongPassword("password", req.Password, validator.DefaultPasswordStrength()),
//	)
//
// Apply evaluates every rule and returns ValidationErrors listing all
// failures, or nil.
package validator
