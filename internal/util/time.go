package util

import "time"

// DateLayout is the ISO calendar-date format every record carries.
const DateLayout = "2006-01-02"

var istLocation *time.Location

func init() {
	var err error
	istLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		istLocation = time.FixedZone("IST", 5*3600+1800)
	}
}

func ToIST(t time.Time) time.Time {
	return t.In(istLocation)
}

func NowIST() time.Time {
	return ToIST(time.Now())
}

// FormatDate truncates a time to its calendar date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
