package exam

import "strconv"

const sectionComputingBasics = "Part 1: Computing Basics"

// DemoExams returns the exams bundled with the demo build.
func DemoExams() []Exam {
	return []Exam{mockExamOne(), pythonBasicsQuiz()}
}

func mockExamOne() Exam {
	return Exam{
		Slug:  "mock1",
		Title: "Mock Exam 1 (Demo)",
		Sections: []Section{
			{Label: sectionComputingBasics, FirstID: 1, LastID: 5},
		},
		Questions: []Question{
			{
				ID:      1,
				Section: sectionComputingBasics,
				Kind:    KindMulti,
				Title:   "Binary Addition",
				Prompt:  "Which are correct solutions for the following calculation?\n\n$$0101_{2} + 0100_{2}$$",
				Hint:    "Convert each binary number to decimal, add them, then convert back.",
				Options: []Option{
					{Label: "$1001_{2}$", Correct: true},
					{Label: "$1101_{2}$"},
					{Label: "$9_{10}$", Correct: true},
					{Label: "$10_{10}$"},
					{Label: "$A_{16}$"},
					{Label: "$9_{16}$", Correct: true},
				},
				Explanation: "0101₂ = 5 and 0100₂ = 4, so the sum is 9₁₀ = 1001₂ = 9₁₆.",
			},
			{
				ID:      2,
				Section: sectionComputingBasics,
				Kind:    KindMulti,
				Title:   "Logic Circuit (OR, AND, XOR)",
				Prompt:  "The circuit feeds inputs A and B into an OR gate (X), an AND gate (Y) and an XOR gate (Z). Which statements are true?",
				Hint:    "XOR is 1 only when inputs are different. OR is 1 if at least one input is 1.",
				Options: []Option{
					{Label: "If the inputs A and B are set to 1 and 1, the values at the outputs X, Y and Z are 1, 1 and 1."},
					{Label: "If the inputs A and B are set to 0 and 0, the values at the outputs X, Y and Z are 0, 0 and 0.", Correct: true},
					{Label: "This circuit can be used as a 1-bit half adder. In this case, the sum bit is in Z and the carry bit is in Y.", Correct: true},
					{Label: "This circuit can be used as a 1-bit half adder. In this case, the sum bit is in Y and the carry bit is in X."},
					{Label: "This circuit can be used as a 1-bit full adder."},
					{Label: "The circuit can be built with electronic components such as transistors or with electromechanical elements such as relays.", Correct: true},
				},
				Explanation: "XOR yields the sum bit and AND the carry bit of a half adder; a full adder would need a carry input.",
			},
			{
				ID:      3,
				Section: sectionComputingBasics,
				Kind:    KindMulti,
				Title:   "CPU Architecture & Instructions",
				Prompt:  "Trace the given machine program on the 3-bit register machine. Which register values hold after execution?",
				Hint:    "Trace each 4 or 6-bit block step by step. Registers start at 000.",
				Options: []Option{
					{Label: "Register 0: 010", Correct: true},
					{Label: "Register 1: 011", Correct: true},
					{Label: "Register 0: 001"},
					{Label: "Register 1: 010"},
					{Label: "Register 0: 100"},
					{Label: "Register 1: 101"},
				},
			},
			{
				ID:      4,
				Section: sectionComputingBasics,
				Kind:    KindSingle,
				Title:   "Python: String Operations",
				Prompt:  "What is the value of the variable `x` after the execution of the following program?\n\n```python\nx = str(1)\ny = 2 // 4\nx = 'hello' + x + str(y)\nx = x.split(sep='')[y+4]\n```",
				Hint:    "`2 // 4` is integer division. `split(sep='')` is a tricky expression here, think indexing.",
				Options: []Option{
					{Label: "'int'"},
					{Label: "'|'"},
					{Label: "'o'"},
					{Label: "'1'"},
					{Label: "'o10'", Correct: true},
					{Label: "1"},
					{Label: "0"},
					{Label: "An error will occur."},
				},
			},
			{
				ID:      5,
				Section: sectionComputingBasics,
				Kind:    KindMulti,
				Title:   "Python: Nested Loops & Logic",
				Prompt:  "How often is each message printed by the nested triangle-classification loops?",
				Hint:    "Trace the loop ranges carefully. What happens when `x=1`?",
				Options: []Option{
					{Label: "(i) 'This triangle does not exist': Never", Correct: true},
					{Label: "(ii) 'equilateral': Never", Correct: true},
					{Label: "(iii) 'isosceles': Never", Correct: true},
					{Label: "(iv) 'obtuse': Never", Correct: true},
					{Label: "An error message occurs during execution"},
				},
				Explanation: "The inner ranges are empty for every reachable x, so no branch ever prints.",
			},
		},
	}
}

func pythonBasicsQuiz() Exam {
	const section = "Python Basics"
	items := []struct {
		prompt  string
		options []string
		correct int
		explain string
	}{
		{"What is the difference between = and ==?", []string{"No difference", "= assigns, == compares", "= compares, == assigns", "Both raise errors"}, 1, "= is assignment (x = 5), == is comparison (x == 5)."},
		{"Which type is `3.14`?", []string{"int", "float", "str", "bool"}, 1, "Numbers with a decimal point are floats."},
		{"What does `7 // 2` return?", []string{"3.5", "3", "4", "Error"}, 1, "// is integer division and drops the fraction."},
		{"What does `f'Hello {name}'` do?", []string{"Prints 'Hello {name}'", "Inserts the variable's value", "Error", "Creates a variable"}, 1, "f-strings substitute values into {}."},
		{"What is missing: `if x > 5` (error!)", []string{"Parentheses", "Colon :", "Semicolon ;", "Indentation"}, 1, "if statements end with a colon."},
		{"Which loop when the count is known?", []string{"while", "for", "if", "switch"}, 1, "for with range for known counts, while until a condition."},
		{"What does `range(5)` produce?", []string{"1,2,3,4,5", "0,1,2,3,4", "0,1,2,3,4,5", "5,4,3,2,1"}, 1, "range(n) starts at 0 and stops before n."},
		{"What does `random.randint(1, 6)` do?", []string{"Always 1 or 6", "1 to 5", "1 to 6 (inclusive)", "0 to 6"}, 2, "randint includes both bounds."},
	}

	e := Exam{
		Slug:     "python-basics",
		Title:    "Python Basics Chapter Quiz",
		Sections: []Section{{Label: section, FirstID: 1, LastID: len(items)}},
	}
	for i, it := range items {
		opts := make([]Option, len(it.options))
		for j, label := range it.options {
			opts[j] = Option{Label: label, Correct: j == it.correct}
		}
		e.Questions = append(e.Questions, Question{
			ID:          i + 1,
			Section:     section,
			Kind:        KindSingle,
			Title:       "Question " + strconv.Itoa(i+1),
			Prompt:      it.prompt,
			Options:     opts,
			Explanation: it.explain,
		})
	}
	return e
}
