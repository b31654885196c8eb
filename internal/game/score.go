package game

// Result is the feedback for one guess.
type Result struct {
	Dead    int `json:"dead"`
	Injured int `json:"injured"`
}

// Score compares a guess against a secret. A digit matching in value and
// position counts as dead; a digit present elsewhere in the secret counts as
// injured. Both inputs must already be validated: the per-position scan only
// avoids double counting because digits within a code are distinct.
func Score(secret, guess Code) Result {
	var r Result
	for i, d := range guess {
		if d == secret[i] {
			r.Dead++
			continue
		}
		for _, s := range secret {
			if d == s {
				r.Injured++
				break
			}
		}
	}
	return r
}
