// Package binding turns incoming Axon requests into validated DTO structs.
//
// A Resolver runs a fixed pipeline for every request:
//
//	gate -> extract (+ normalize) -> bind -> [diagnose] -> validate
//
// The gate rejects methods the declaration does not allow. Extraction merges
// query, route and body parameters into one map, and the strict normalizer
// turns string-encoded booleans and numbers into native values. The binder
// maps snake_case wire keys onto the DTO's fields and attempts every field
// even when earlier ones fail. Type mismatches become one violation per field
// and the request is rejected before validation runs. Otherwise the bound
// value is checked with go-playground/validator.
//
// Both binding and rule violations surface as a *ViolationError, so handlers
// can answer every invalid request the same way:
//
//	type CreateOrder struct {
//		CustomerID int      `validate:"required,min=1"`
//		Items      []string `validate:"required,min=1"`
//		Note       *string
//	}
//
//	res := binding.MustNewFor[CreateOrder](binding.Write(binding.WithAcceptFormats("json")))
//
//	server.RegisterRoute("POST", axon.NewAxonPath("/orders"),
//		binding.Handle(res, func(c axon.RequestContext, in *CreateOrder) error {
//			return c.Response().JSON(http.StatusCreated, in)
//		}))
//
// Declarations can also be written as source annotations and parsed with
// ParseDeclaration:
//
//	//axon::bind write -Accept=json,form -Groups=Default,create -Sequence
package binding
