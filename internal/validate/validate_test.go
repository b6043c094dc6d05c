package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	v := MustNew()

	testCases := []struct {
		name     string
		kind     Kind
		payload  string
		wantCode string
	}{
		{name: "championship", kind: Championship, payload: `{"name":"Formula Test","features":{"flat_driver_skill":{"enabled":true}}}`},
		{name: "championship blank name", kind: Championship, payload: `{"name":"   "}`, wantCode: ErrCodeSchema},
		{name: "championship unknown field", kind: Championship, payload: `{"name":"F","colour":"red"}`, wantCode: ErrCodeSchema},
		{name: "track", kind: Track, payload: `{"name":"Zandvoort","lengthMillimeters":4259000,"city":"Zandvoort","country":"NL"}`},
		{name: "track negative length", kind: Track, payload: `{"name":"Z","lengthMillimeters":-1}`, wantCode: ErrCodeSchema},
		{name: "driver", kind: Driver, payload: `{"name":["Max","Verstappen"],"abbreviation":"ver","number":"1","data":{"flat_driver_skill":{"skill":5}}}`},
		{name: "driver without name", kind: Driver, payload: `{"name":[]}`, wantCode: ErrCodeSchema},
		{name: "driver long abbreviation", kind: Driver, payload: `{"name":["A"],"abbreviation":"ABCD"}`, wantCode: ErrCodeSchema},
		{name: "event", kind: Event, payload: `{"name":"Dutch GP","trackId":"1a2b"}`},
		{name: "event bad track id", kind: Event, payload: `{"name":"Dutch GP","trackId":"no-such"}`, wantCode: ErrCodeSchema},
		{name: "session", kind: Session, payload: `{"name":"Race","lapCount":72}`},
		{name: "session zero laps", kind: Session, payload: `{"name":"Race","lapCount":0}`, wantCode: ErrCodeSchema},
		{name: "session missing laps", kind: Session, payload: `{"name":"Race"}`, wantCode: ErrCodeSchema},
		{name: "state", kind: StateChange, payload: `{"state":"Running"}`},
		{name: "state unknown", kind: StateChange, payload: `{"state":"Paused"}`, wantCode: ErrCodeSchema},
		{name: "progress", kind: ProgressChange, payload: `{"elapsedLaps":3}`},
		{name: "progress overflow", kind: ProgressChange, payload: `{"elapsedLaps":70000}`, wantCode: ErrCodeSchema},
		{name: "malformed", kind: Session, payload: `{"name":`, wantCode: ErrCodeMalformed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Check(tc.kind, []byte(tc.payload))
			if tc.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.wantCode, verr.Code)
			assert.NotEmpty(t, verr.Fields)
		})
	}
}

func TestCheck_UnknownKind(t *testing.T) {
	err := MustNew().Check(Kind("#Pitlane"), []byte(`{}`))
	require.Error(t, err)

	var verr *Error
	assert.False(t, errors.As(err, &verr), "unknown kinds are programming errors, not payload errors")
}

func TestDecode(t *testing.T) {
	var body struct {
		Name     string `json:"name"`
		LapCount uint16 `json:"lapCount"`
	}
	require.NoError(t, MustNew().Decode(Session, []byte(`{"name":"Sprint","lapCount":24}`), &body))

	assert.Equal(t, "Sprint", body.Name)
	assert.Equal(t, uint16(24), body.LapCount)
}

func TestError_Message(t *testing.T) {
	err := &Error{Kind: Session, Code: ErrCodeSchema, Fields: []FieldError{{Path: "lapCount", Message: "invalid value"}}}
	assert.Equal(t, "[E202] invalid Session payload: lapCount: invalid value", err.Error())
}
