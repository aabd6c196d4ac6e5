// Package tokenizer splits field text into lowercase word tokens with
// positions. It deliberately does no stemming or stopword removal: the
// memory index dictionary is exact-term, and linguistic normalization
// belongs to the layers feeding it.
package tokenizer
