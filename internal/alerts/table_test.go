package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/alert-arbiter/pkg/models"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		names   map[EventName]string
		wantErr bool
	}{
		{name: "valid", kind: "k", names: map[EventName]string{0: "a", 3: "b"}},
		{name: "missing kind", names: map[EventName]string{0: "a"}, wantErr: true},
		{name: "empty", kind: "k", names: map[EventName]string{}, wantErr: true},
		{name: "blank name", kind: "k", names: map[EventName]string{0: ""}, wantErr: true},
		{name: "duplicate name", kind: "k", names: map[EventName]string{0: "a", 1: "a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.kind, tt.names)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMapping)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.names), r.Len())
		})
	}
}

func TestRegistry_RoundTrip(t *testing.T) {
	r := DefaultRegistry()

	for _, id := range r.IDs() {
		name, err := r.Name(id)
		require.NoError(t, err)

		back, ok := r.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, id, back)
	}

	assert.Equal(t, MessageKindOnroadEvents, r.MessageKind())
	assert.Equal(t, len(defaultNames), r.Len())
}

func TestRegistry_Unknown(t *testing.T) {
	r, err := NewRegistry("k", map[EventName]string{0: "a", 5: "b"})
	require.NoError(t, err)

	_, err = r.Name(3)
	assert.ErrorIs(t, err, ErrUnknownEvent)
	_, err = r.Name(6)
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, ok := r.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []EventName{0, 5}, r.IDs())
	assert.Equal(t, 6, r.Cap())
}

func TestNewTable_Validation(t *testing.T) {
	registry, err := NewRegistry("k", map[EventName]string{0: "a", 1: "b"})
	require.NoError(t, err)

	ok := Static(NoEntryAlert("x"))

	tests := []struct {
		name    string
		mapping Mapping
		wantErr bool
	}{
		{
			name:    "complete",
			mapping: Mapping{0: {Warning: ok}, 1: {NoEntry: ok}},
		},
		{
			name:    "orphan registry entry",
			mapping: Mapping{0: {Warning: ok}},
			wantErr: true,
		},
		{
			name:    "unregistered event",
			mapping: Mapping{0: {Warning: ok}, 1: {Warning: ok}, 7: {Warning: ok}},
			wantErr: true,
		},
		{
			name:    "no contexts",
			mapping: Mapping{0: {Warning: ok}, 1: {}},
			wantErr: true,
		},
		{
			name:    "invalid context",
			mapping: Mapping{0: {Warning: ok}, 1: {EventType(42): ok}},
			wantErr: true,
		},
		{
			name:    "empty entry",
			mapping: Mapping{0: {Warning: ok}, 1: {Warning: Computed(nil)}},
			wantErr: true,
		},
		{
			name:    "invalid static alert",
			mapping: Mapping{0: {Warning: ok}, 1: {Warning: Static(Alert{Priority: PriorityLow})}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(registry, tt.mapping)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMapping)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultCatalog_Complete(t *testing.T) {
	table, err := DefaultCatalog(nil)
	require.NoError(t, err)

	for _, id := range table.Registry().IDs() {
		assert.NotEmpty(t, table.Types(id), "event %d has no contexts", id)
	}
}

func TestTable_Lookup(t *testing.T) {
	table, err := DefaultCatalog(nil)
	require.NoError(t, err)

	entry, ok := table.Lookup(SilentReverseGear, Permanent)
	require.True(t, ok)
	a, static := entry.StaticAlert()
	require.True(t, static)
	assert.Equal(t, SizeFull, a.Size)
	assert.Equal(t, PriorityLowest, a.Priority)

	_, ok = table.Lookup(SilentReverseGear, Warning)
	assert.False(t, ok)

	_, ok = table.Lookup(EventName(999), Warning)
	assert.False(t, ok)

	entry, ok = table.Lookup(WrongCarModeAlertOnly, Warning)
	require.True(t, ok)
	assert.True(t, entry.IsComputed())

	assert.Equal(t, []EventType{NoEntry, Permanent}, table.Types(SilentReverseGear))
}

func TestEntry_Resolve(t *testing.T) {
	snap := &models.Snapshot{CarParams: models.CarParams{Brand: "honda"}}

	t.Run("static", func(t *testing.T) {
		a, err := Static(NoEntryAlert("Door Open")).Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, "Door Open", a.Text2)
	})

	t.Run("computed", func(t *testing.T) {
		a, err := Computed(wrongCarModeAlert).Resolve(snap)
		require.NoError(t, err)
		assert.Equal(t, "Enable Main Switch to Engage", a.Text2)
	})

	t.Run("nil snapshot", func(t *testing.T) {
		_, err := Computed(wrongCarModeAlert).Resolve(nil)
		assert.ErrorIs(t, err, ErrCallbackEvaluation)
	})

	t.Run("callback error", func(t *testing.T) {
		_, err := Computed(speedLimitAdjustAlert).Resolve(snap)
		assert.ErrorIs(t, err, ErrCallbackEvaluation)
	})

	t.Run("callback panic", func(t *testing.T) {
		entry := Computed(func(*models.Snapshot) (Alert, error) { panic("boom") })
		_, err := entry.Resolve(snap)
		assert.ErrorIs(t, err, ErrCallbackEvaluation)
	})

	t.Run("invalid computed alert", func(t *testing.T) {
		entry := Computed(func(*models.Snapshot) (Alert, error) { return Alert{}, nil })
		_, err := entry.Resolve(snap)
		assert.ErrorIs(t, err, ErrCallbackEvaluation)
	})
}

func TestEventType_Text(t *testing.T) {
	for _, et := range EventTypes() {
		text, err := et.MarshalText()
		require.NoError(t, err)

		var back EventType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, et, back)
	}

	_, err := ParseEventType("sometimes")
	assert.Error(t, err)
	assert.Equal(t, "unknown", EventType(99).String())
}

func TestAlert_Validate(t *testing.T) {
	assert.NoError(t, ControlsMismatchAlert().Validate())
	assert.NoError(t, NormalPermanentAlert("x", WithText2("y"), WithPriority(PriorityHigh)).Validate())

	bad := NoEntryAlert("x")
	bad.Duration = -1
	bad.Audible = "siren"
	assert.Error(t, bad.Validate())
}

func TestNormalPermanentAlert_Options(t *testing.T) {
	a := NormalPermanentAlert("Experimental Mode Switched",
		WithText2("Now active"),
		WithDuration(seconds(1.5)),
		WithCreationDelay(seconds(0.5)),
	)

	assert.Equal(t, SizeMid, a.Size)
	assert.Equal(t, PriorityLower, a.Priority)
	assert.Equal(t, seconds(1.5), a.Duration)
	assert.Equal(t, seconds(0.5), a.CreationDelay)
	assert.False(t, a.Silent())
	assert.True(t, EngagementAlert(AudibleEngage).Silent())
}
