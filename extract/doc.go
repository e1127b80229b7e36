// Package extract recovers structured JSON values from the free-form text
// that generative models return. Model output routinely arrives wrapped in
// Markdown code fences, padded with whitespace or carrying trailing commas;
// this package repairs those specific defects deterministically and then
// hands the result to a strict JSON parse. It performs no natural-language
// understanding, no retries and no I/O; every function is pure and safe for
// unlimited concurrent use.
//
// Known limitation: the trailing-comma repair is a plain regular expression
// and can misfire on a string literal whose value ends in a literal ",}" or
// ",]" sequence. This matches the behavior of the regex-based cleanup the
// repair was modeled on and is kept intentionally; a grammar-aware repair
// would be a behavior change.
package extract
