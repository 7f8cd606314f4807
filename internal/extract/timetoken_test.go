package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTime(t *testing.T) {
	tests := map[string]struct {
		hour, minute, meridiem string
		expected               TimeOfDay
		wantErr                bool
	}{
		"NoonPM":         {hour: "12", meridiem: "pm", expected: TimeOfDay{12, 0}},
		"MidnightAM":     {hour: "12", meridiem: "AM", expected: TimeOfDay{0, 0}},
		"EveningPM":      {hour: "9", minute: "30", meridiem: "PM", expected: TimeOfDay{21, 30}},
		"MorningAM":      {hour: "7", minute: "05", meridiem: "am", expected: TimeOfDay{7, 5}},
		"Bare24Hour":     {hour: "17", minute: "45", expected: TimeOfDay{17, 45}},
		"HourTooLarge":   {hour: "24", wantErr: true},
		"MinuteTooLarge": {hour: "9", minute: "60", wantErr: true},
		"PMAboveTwelve":  {hour: "13", meridiem: "pm", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := resolveTime(tc.hour, tc.minute, tc.meridiem)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFindTime_Priority(t *testing.T) {
	tests := map[string]struct {
		input  string
		start  TimeOfDay
		end    TimeOfDay
		single bool
	}{
		"RangeCompact":     {input: "9am-5pm", start: TimeOfDay{9, 0}, end: TimeOfDay{17, 0}},
		"RangeSpaced":      {input: "9:00 AM — 5:30 PM", start: TimeOfDay{9, 0}, end: TimeOfDay{17, 30}},
		"Range24":          {input: "09:00-17:00", start: TimeOfDay{9, 0}, end: TimeOfDay{17, 0}},
		"SingleMeridiem":   {input: "at 2pm", start: TimeOfDay{14, 0}, end: TimeOfDay{15, 0}, single: true},
		"Single24WrapsDay": {input: "23:15", start: TimeOfDay{23, 15}, end: TimeOfDay{0, 15}, single: true},
		"Range24Seconds":   {input: "09:00:00-17:30:00", start: TimeOfDay{9, 0}, end: TimeOfDay{17, 30}},
		"Single24Seconds":  {input: "at 06:45:00", start: TimeOfDay{6, 45}, end: TimeOfDay{7, 45}, single: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			spec, found, err := findTime(tc.input)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tc.start, spec.Start)
			assert.Equal(t, tc.end, spec.End)
			assert.Equal(t, tc.single, spec.Single)
		})
	}

	_, found, err := findTime("no times here")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestFindDates(t *testing.T) {
	got, spans := findDates("Mar 3, 2025 then 2025-03-04, 3/5/25 and again Mar 3, 2025")
	require.Len(t, got, 3)
	require.Len(t, spans, 4)
	assert.Equal(t, [2]int{46, 57}, spans[3])

	var texts []string
	for _, d := range got {
		texts = append(texts, d.Text)
	}
	assert.Equal(t, []string{"Mar 3, 2025", "2025-03-04", "3/5/25"}, texts)

	y, m, d, err := got[2].date()
	require.NoError(t, err)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 3, int(m))
	assert.Equal(t, 5, d)
}

func TestFindDates_ISODateTime(t *testing.T) {
	got, spans := findDates("Shift 2024-01-15T09:00")
	require.Len(t, got, 1)
	assert.Equal(t, [2]int{6, 17}, spans[0])

	y, m, d, err := got[0].date()
	require.NoError(t, err)
	assert.Equal(t, 2024, y)
	assert.Equal(t, 1, int(m))
	assert.Equal(t, 15, d)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "Inventory", cleanTitle("  -  Inventory ,  "))
	assert.Equal(t, "Front desk", cleanTitle("Front   desk —"))
	assert.Equal(t, "", cleanTitle(" , - "))
}
