package hotspot

// ClassMetrics holds precision/recall/F1 for one label value.
type ClassMetrics struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation is a binary-classifier scorecard. Confusion is indexed
// [actual][predicted].
type Evaluation struct {
	Accuracy  float64        `json:"accuracy"`
	Confusion [2][2]int      `json:"confusion"`
	Classes   []ClassMetrics `json:"classes"`
}

// Evaluate scores predictions against actual binary labels. Undefined ratios
// (no predictions or no support for a class) report as zero.
func Evaluate(actual, predicted []int) Evaluation {
	var ev Evaluation
	if len(actual) == 0 {
		return ev
	}

	correct := 0
	for i := range actual {
		ev.Confusion[actual[i]][predicted[i]]++
		if actual[i] == predicted[i] {
			correct++
		}
	}
	ev.Accuracy = float64(correct) / float64(len(actual))

	for class := 0; class <= 1; class++ {
		tp := ev.Confusion[class][class]
		predictedAs := ev.Confusion[0][class] + ev.Confusion[1][class]
		support := ev.Confusion[class][0] + ev.Confusion[class][1]

		cm := ClassMetrics{Class: class, Support: support}
		if predictedAs > 0 {
			cm.Precision = float64(tp) / float64(predictedAs)
		}
		if support > 0 {
			cm.Recall = float64(tp) / float64(support)
		}
		if cm.Precision+cm.Recall > 0 {
			cm.F1 = 2 * cm.Precision * cm.Recall / (cm.Precision + cm.Recall)
		}
		ev.Classes = append(ev.Classes, cm)
	}
	return ev
}
