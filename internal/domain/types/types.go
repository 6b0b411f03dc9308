// Package types contains read shapes shared by the service and the API.
package types

// RankedStudent is one row of the student ranking.
type RankedStudent struct {
	Rank         int     `json:"rank"`
	StudentID    string  `json:"studentId"`
	StudentName  string  `json:"studentName"`
	OverallScore float64 `json:"overallScore"`
	Tier         string  `json:"tier"`
	Color        string  `json:"color"`
}
