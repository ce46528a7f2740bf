// Package storage provides the optional deletion audit log.
//
// The bot never reads this data back; every append is best-effort and a
// failure only produces a warning. It exists so an operator can answer
// "what did the bot delete and why" after the fact.
package storage
