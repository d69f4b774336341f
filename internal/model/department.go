package model

// Departments maps the fixed department codes to display names.
var Departments = map[string]string{
	"CSE":      "Computer Science and Engineering",
	"ECE":      "Electronics and Communication Engineering",
	"ME":       "Mechanical Engineering",
	"RESEARCH": "Research",
	"ADMIN":    "Administration",
}

// ValidDepartment reports whether code is a known department code.
func ValidDepartment(code string) bool {
	_, ok := Departments[code]
	return ok
}
