package model

import "time"

type StudySession struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Subject   string    `json:"subject"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Duration  int64     `json:"duration"` // seconds
}
