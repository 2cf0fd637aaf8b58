package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityOrder(t *testing.T) {
	levels := Priorities()
	require.Len(t, levels, 4)
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1], levels[i], "%s should rank below %s", levels[i-1], levels[i])
	}
}

func TestRaiseTo(t *testing.T) {
	tests := []struct {
		name      string
		current   Priority
		candidate Priority
		expected  Priority
	}{
		{"escalates", Continue, UrgentCare, UrgentCare},
		{"never downgrades", EmergencyUrgentCare, Interconsultation, EmergencyUrgentCare},
		{"equal stays", UrgentCare, UrgentCare, UrgentCare},
		{"advisory is a no-op", Interconsultation, Continue, Interconsultation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RaiseTo(tt.current, tt.candidate))
		})
	}
}

func TestRaiseTo_OrderIndependent(t *testing.T) {
	for _, a := range Priorities() {
		for _, b := range Priorities() {
			assert.Equal(t, RaiseTo(RaiseTo(Continue, a), b), RaiseTo(RaiseTo(Continue, b), a))
		}
	}
}

func TestPriorityConstants(t *testing.T) {
	tests := []struct {
		value Priority
		code  string
		label string
	}{
		{Continue, "CONTINUE", "Continue"},
		{Interconsultation, "INTERCONSULTATION", "Interconsultation"},
		{UrgentCare, "URGENT_CARE", "Urgent Care"},
		{EmergencyUrgentCare, "EMERGENCY_URGENT_CARE", "Emergency Urgent Care"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.value.String())
			assert.Equal(t, tt.label, tt.value.Label())
			assert.NotEmpty(t, tt.value.Guidance())
		})
	}
	assert.Equal(t, "UNKNOWN", Priority(9).String())
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input    string
		expected Priority
		wantErr  bool
	}{
		{"URGENT_CARE", UrgentCare, false},
		{"urgent care", UrgentCare, false},
		{" Emergency Urgent Care ", EmergencyUrgentCare, false},
		{"1", Interconsultation, false},
		{"7", Continue, true},
		{"GUARDIA", Continue, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePriority(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPriority)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestPriorityJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		P Priority `json:"p"`
	}{UrgentCare})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"URGENT_CARE"}`, string(data))

	var out struct {
		P Priority `json:"p"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"p":"INTERCONSULTATION"}`), &out))
	assert.Equal(t, Interconsultation, out.P)

	_, err = json.Marshal(Priority(-1))
	assert.Error(t, err)
}

func TestLetterGrade(t *testing.T) {
	assert.True(t, GradeNone.IsNone())
	assert.True(t, LetterGrade("").IsNone())
	assert.False(t, GradeA.IsNone())

	assert.True(t, GradeD.Within(true, GradeD))
	assert.False(t, GradeE.Within(true, GradeD))
	assert.False(t, GradeNone.Within(false, GradeE))
	assert.True(t, GradeNone.Within(true, GradeE))
	assert.False(t, LetterGrade("F").Within(true, GradeE))

	assert.True(t, GradeC.In(GradeC, GradeD, GradeE))
	assert.False(t, GradeB.In(GradeC, GradeD, GradeE))
}

func TestParseLetterGrade(t *testing.T) {
	tests := []struct {
		input    string
		expected LetterGrade
		wantErr  bool
	}{
		{"", GradeNone, false},
		{"0", GradeNone, false},
		{"No", GradeNone, false},
		{"c", GradeC, false},
		{" E ", GradeE, false},
		{"F", GradeNone, true},
		{"3", GradeNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			g, err := ParseLetterGrade(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGrade)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, g)
		})
	}
}

func TestNumericScales(t *testing.T) {
	assert.True(t, Grade04(4).Valid())
	assert.False(t, Grade04(5).Valid())
	assert.False(t, Grade04(-1).Valid())
	assert.True(t, Grade03(3).Valid())
	assert.False(t, Grade03(4).Valid())
}

func TestContextEnums(t *testing.T) {
	assert.True(t, TimingRestWeek.Valid())
	assert.False(t, TreatmentTiming("tomorrow").Valid())
	assert.Equal(t, "Rest week", TimingRestWeek.Label())
	assert.True(t, RTWeekOver14Days.Valid())
	assert.False(t, RTSinceEnd(">14d").Valid())
	assert.True(t, PalliativeNA.Valid())
	assert.False(t, PalliativeStatus("Maybe").Valid())
}
