/*
Package dsl provides a fluent builder for constructing recipes programmatically.

It allows developers to define step sequences using a type-safe, chainable API
instead of external YAML manifests. This is particularly useful for recipes
whose steps close over application dependencies, for unit testing, and for
leveraging IDE autocompletion.

Example usage:

	def, err := dsl.New("math").
		Step("square", square).
		Step("double", double).
		OnResult(func(st *domain.State) any {
			n, _ := st.Value("number")
			return n
		}).
		Build()

Build validates the sequence: every declared step must resolve to an
implementation, so a malformed recipe is rejected before it can run.
*/
package dsl
