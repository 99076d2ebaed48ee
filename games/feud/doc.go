// Package feud implements a two-team survey game in the style of Family Feud.
//
// How to play
// - The host names two teams and a batch of survey questions is loaded
// - Each round shows one question; the host reveals answers as teams guess them
// - Revealed answers add their points to the round's pot
// - Wrong guesses earn strikes, up to three per round
// - The host awards the pot to one team, which moves play to the next question
// - After the last question the match is over and the higher score wins
//
// Implementation details:
// - The host and the public board each hold their own copy of the state
// - Every change is broadcast as a full snapshot and persisted under one key
// - A context that receives a snapshot applies it only if it differs from its own
// - Questions come from a fixed list, or from a language model when configured
package feud
