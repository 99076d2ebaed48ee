package feud

import "sort"

// SurveyTotal is the number of points every question's answers add up to.
const SurveyTotal = 100

// Normalize returns a copy of q whose answer points sum to SurveyTotal.
// The highest-point answer (first on ties) absorbs the difference and is
// never pushed below 1. Answers arriving with fewer than 1 point are raised
// to 1 first. When the floor leaves a surplus, it is taken from the
// remaining answers, largest first, down to 1 each.
func Normalize(q Question) Question {
	q = q.Clone()
	if len(q.Answers) == 0 {
		return q
	}

	for i := range q.Answers {
		q.Answers[i].Points = max(1, q.Answers[i].Points)
	}

	diff := SurveyTotal - sumPoints(q.Answers)
	if diff == 0 {
		return q
	}

	target := 0
	for i, a := range q.Answers {
		if a.Points > q.Answers[target].Points {
			target = i
		}
	}
	q.Answers[target].Points = max(1, q.Answers[target].Points+diff)

	surplus := sumPoints(q.Answers) - SurveyTotal
	if surplus <= 0 {
		return q
	}

	order := make([]int, len(q.Answers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return q.Answers[order[a]].Points > q.Answers[order[b]].Points
	})

	for _, i := range order {
		if surplus == 0 {
			break
		}
		take := min(surplus, q.Answers[i].Points-1)
		q.Answers[i].Points -= take
		surplus -= take
	}

	return q
}

func sumPoints(answers []Answer) int {
	total := 0
	for _, a := range answers {
		total += a.Points
	}
	return total
}
