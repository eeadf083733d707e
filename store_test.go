package refract

import (
	"testing"
	"time"
)

func colorDefs() []Definition {
	return []Definition{
		{
			Key:        "backgroundColor",
			Default:    "#000000",
			FacadeName: "bgColor",
			Validate:   HexColorValidator(),
		},
		{
			Key:        "saturation",
			Default:    1.0,
			FacadeName: "colorSaturation",
			Validate:   RangeValidator(0, 2),
			Min:        0, Max: 2, Step: 0.01,
		},
		{
			Key:     "swatchSlot",
			Default: 0.0,
			// UI-only: no facade mapping, never pushed.
		},
	}
}

func TestStore_UpdateWritesCellAndPushes(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	if !store.UpdateParameter("backgroundColor", "#ff8800") {
		t.Fatal("expected valid update to succeed")
	}
	if got := store.Signal("backgroundColor").Read(); got != "#ff8800" {
		t.Errorf("expected cell updated, got %v", got)
	}
	if v, _ := facade.lastSet("bgColor"); v != "#ff8800" {
		t.Errorf("expected push under the engine name, got %v", v)
	}
}

func TestStore_IdenticalUpdateIsIdempotent(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	notifications := 0
	store.Signal("saturation").Subscribe(func(Value) { notifications++ })

	store.UpdateParameter("saturation", 1.5)
	store.UpdateParameter("saturation", 1.5)

	if notifications != 1 {
		t.Errorf("expected 1 notification for the transition, got %d", notifications)
	}
	if got := facade.setCount("colorSaturation"); got != 1 {
		t.Errorf("expected 1 push, got %d", got)
	}
}

func TestStore_ValidationFailureKeepsValueAndSkipsPush(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	if store.UpdateParameter("backgroundColor", "not-a-color") {
		t.Fatal("expected rejection")
	}
	if got := store.Signal("backgroundColor").Read(); got != "#000000" {
		t.Errorf("expected default retained, got %v", got)
	}
	if got := facade.setCount("bgColor"); got != 0 {
		t.Errorf("expected no push on rejection, got %d", got)
	}
}

func TestStore_UnknownKeyRejected(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	if store.UpdateParameter("nope", 1.0) {
		t.Error("expected unknown key to be rejected")
	}
}

func TestStore_UnmappedKeyNeverPushes(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	store.UpdateParameter("swatchSlot", 3.0)

	facade.mu.Lock()
	defer facade.mu.Unlock()
	if len(facade.setCalls) != 0 {
		t.Errorf("UI-only key reached the engine: %v", facade.setCalls)
	}
}

func TestStore_EngineValueDoesNotEchoBack(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	if !store.ApplyEngineValue("colorSaturation", 0.4) {
		t.Fatal("expected mapped name to route")
	}
	if got := store.Signal("saturation").Read(); got != 0.4 {
		t.Errorf("expected cell updated from engine, got %v", got)
	}
	if got := facade.setCount("colorSaturation"); got != 0 {
		t.Errorf("engine-originated value echoed back: %d pushes", got)
	}
}

func TestStore_ApplyEngineValueUnknownName(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	if store.ApplyEngineValue("someOtherParam", 1.0) {
		t.Error("expected unmapped engine name to be ignored")
	}
}

func TestStore_SyncPullsWithoutPushing(t *testing.T) {
	facade := newStubFacade()
	facade.params["bgColor"] = "#112233"
	facade.params["colorSaturation"] = 0.7
	store, _ := testStore("color", colorDefs(), facade)

	if !store.SyncWithFacade() {
		t.Fatal("expected sync to run against an initialized engine")
	}

	if got := store.Signal("backgroundColor").Read(); got != "#112233" {
		t.Errorf("expected synced color, got %v", got)
	}
	if got := store.Signal("saturation").Read(); got != 0.7 {
		t.Errorf("expected synced saturation, got %v", got)
	}
	facade.mu.Lock()
	defer facade.mu.Unlock()
	if len(facade.setCalls) != 0 {
		t.Errorf("sync must not push, got %v", facade.setCalls)
	}
}

func TestStore_SyncSkippedWhileOffline(t *testing.T) {
	facade := newStubFacade()
	facade.setInitialized(false)
	facade.params["colorSaturation"] = 0.7
	store, _ := testStore("color", colorDefs(), facade)

	if store.SyncWithFacade() {
		t.Fatal("expected sync to report false while offline")
	}
	if got := store.Signal("saturation").Read(); got != 1.0 {
		t.Errorf("expected cells untouched, got %v", got)
	}
}

func TestStore_OfflineEditThenCatchUp(t *testing.T) {
	facade := newStubFacade()
	facade.setInitialized(false)
	store, _ := testStore("color", colorDefs(), facade)

	// The edit lands in the cell; the push is skipped, not queued.
	store.UpdateParameter("saturation", 1.8)
	if got := store.Signal("saturation").Read(); got != 1.8 {
		t.Errorf("expected cell to hold the edit while offline, got %v", got)
	}
	if got := facade.setCount("colorSaturation"); got != 0 {
		t.Errorf("expected no push while offline, got %d", got)
	}

	// Once the engine comes up, sync pulls the engine's state. The engine
	// is the source of truth; the offline edit is superseded.
	facade.setInitialized(true)
	facade.params["colorSaturation"] = 0.5
	store.SyncWithFacade()

	if got := store.Signal("saturation").Read(); got != 0.5 {
		t.Errorf("expected engine value after catch-up, got %v", got)
	}
}

func TestStore_BatchAllOrNothing(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	ok := store.UpdateParameters(map[string]Value{
		"backgroundColor": "#ffffff",
		"saturation":      99.0, // out of range
	})

	if ok {
		t.Fatal("expected batch rejection")
	}
	if got := store.Signal("backgroundColor").Read(); got != "#000000" {
		t.Errorf("expected no partial application, got %v", got)
	}
	facade.mu.Lock()
	defer facade.mu.Unlock()
	if len(facade.setCalls) != 0 {
		t.Errorf("rejected batch must not push, got %v", facade.setCalls)
	}
}

func TestStore_BatchAppliesAtomically(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	var saturationAtNotify Value
	store.Signal("backgroundColor").Subscribe(func(Value) {
		saturationAtNotify = store.Signal("saturation").Read()
	})

	ok := store.UpdateParameters(map[string]Value{
		"backgroundColor": "#ffffff",
		"saturation":      0.3,
	})

	if !ok {
		t.Fatal("expected batch to apply")
	}
	if saturationAtNotify != 0.3 {
		t.Errorf("subscriber observed a partially applied batch: saturation=%v", saturationAtNotify)
	}
}

func TestStore_EngineRejectionDoesNotStopBatch(t *testing.T) {
	facade := newStubFacade()
	facade.rejectNames["bgColor"] = true
	store, _ := testStore("color", colorDefs(), facade)

	ok := store.UpdateParameters(map[string]Value{
		"backgroundColor": "#ffffff",
		"saturation":      0.3,
	})

	if !ok {
		t.Fatal("an engine rejection is not a validation failure")
	}
	if got := store.Signal("backgroundColor").Read(); got != "#ffffff" {
		t.Errorf("expected cell to keep the batch value, got %v", got)
	}
	if got := facade.setCount("colorSaturation"); got != 1 {
		t.Errorf("expected the other key still pushed, got %d", got)
	}
}

func TestStore_ResetRestoresDefaults(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)

	store.UpdateParameter("backgroundColor", "#ffffff")
	store.UpdateParameter("saturation", 0.2)
	store.Reset()

	if got := store.Signal("backgroundColor").Read(); got != "#000000" {
		t.Errorf("expected default color, got %v", got)
	}
	if got := store.Signal("saturation").Read(); got != 1.0 {
		t.Errorf("expected default saturation, got %v", got)
	}
	if v, _ := facade.lastSet("colorSaturation"); v != 1.0 {
		t.Errorf("expected default pushed, got %v", v)
	}
}

func TestStore_ValueConversionOnPushAndIntake(t *testing.T) {
	facade := newStubFacade()
	defs := []Definition{{
		Key:        "intensity",
		Default:    0.5,
		FacadeName: "lightIntensity",
		Validate:   RangeValidator(0, 1),
		// Engine speaks percent.
		ToEngine:   func(v Value) Value { return v.(float64) * 100 },
		FromEngine: func(v Value) Value { return normalizeValue(v).(float64) / 100 },
	}}
	store, _ := testStore("lighting", defs, facade)

	store.UpdateParameter("intensity", 0.25)
	if v, _ := facade.lastSet("lightIntensity"); v != 25.0 {
		t.Errorf("expected engine representation 25, got %v", v)
	}

	store.ApplyEngineValue("lightIntensity", 80.0)
	if got := store.Signal("intensity").Read(); got != 0.8 {
		t.Errorf("expected UI representation 0.8, got %v", got)
	}
}

func mirroredStores(t *testing.T, facade Facade) (*Store, *Store, *MirrorBus) {
	t.Helper()
	bus := NewMirrorBus()

	color, _ := testStore("color", []Definition{{
		Key:        "transparentBackground",
		Default:    false,
		FacadeName: "transparentBg",
		Validate:   BoolValidator(),
	}}, facade)
	export, _ := testStore("export", []Definition{{
		Key:      "transparentBackground",
		Default:  false,
		Validate: BoolValidator(),
	}}, facade)

	color.BindMirror(bus, MirrorTransparentBackground, "transparentBackground", true)
	export.BindMirror(bus, MirrorTransparentBackground, "transparentBackground", false)
	return color, export, bus
}

func TestStore_MirrorPropagatesAcrossDomains(t *testing.T) {
	facade := newStubFacade()
	color, export, _ := mirroredStores(t, facade)

	color.UpdateParameter("transparentBackground", true)

	if got := export.Signal("transparentBackground").Read(); got != true {
		t.Errorf("expected mirrored value in export domain, got %v", got)
	}
	// Only the authoritative domain pushes; the peer's projection is
	// cell-only.
	if got := facade.setCount("transparentBg"); got != 1 {
		t.Errorf("expected exactly 1 push from the authoritative domain, got %d", got)
	}
}

func TestStore_PeerEditDoesNotPropagate(t *testing.T) {
	facade := newStubFacade()
	color, export, _ := mirroredStores(t, facade)

	export.UpdateParameter("transparentBackground", true)

	if got := color.Signal("transparentBackground").Read(); got != false {
		t.Errorf("peer edit must not reach the authoritative domain, got %v", got)
	}
}

func TestStore_MirrorDoesNotLoop(t *testing.T) {
	facade := newStubFacade()
	color, export, _ := mirroredStores(t, facade)

	colorNotifies, exportNotifies := 0, 0
	color.Signal("transparentBackground").Subscribe(func(Value) { colorNotifies++ })
	export.Signal("transparentBackground").Subscribe(func(Value) { exportNotifies++ })

	color.UpdateParameter("transparentBackground", true)

	if colorNotifies != 1 || exportNotifies != 1 {
		t.Errorf("expected one notification per domain, got color=%d export=%d",
			colorNotifies, exportNotifies)
	}
	if got := facade.setCount("transparentBg"); got != 1 {
		t.Errorf("expected 1 push total, got %d", got)
	}
}

func TestStore_MirrorFollowsEngineSync(t *testing.T) {
	facade := newStubFacade()
	color, export, _ := mirroredStores(t, facade)

	// The engine flips the flag (preset apply, its own UI); the sync
	// routes it into the authoritative cell and the projection follows.
	facade.params["transparentBg"] = true
	color.SyncWithFacade()

	if got := export.Signal("transparentBackground").Read(); got != true {
		t.Errorf("expected projection to follow engine sync, got %v", got)
	}
	if got := facade.setCount("transparentBg"); got != 0 {
		t.Errorf("engine sync must not push, got %d", got)
	}
}

func TestStore_MirrorFollowsEngineIntake(t *testing.T) {
	facade := newStubFacade()
	color, export, _ := mirroredStores(t, facade)

	color.ApplyEngineValue("transparentBg", true)

	if got := export.Signal("transparentBackground").Read(); got != true {
		t.Errorf("expected projection to follow engine intake, got %v", got)
	}
	if got := facade.setCount("transparentBg"); got != 0 {
		t.Errorf("engine intake must not push, got %d", got)
	}
}

func TestStore_IdenticalCommitSupersedesPendingDebounce(t *testing.T) {
	facade := newStubFacade()
	store, d := testStore("distortion", []Definition{{
		Key:        "strength",
		Default:    0.0,
		FacadeName: "distortStrength",
		Validate:   RangeValidator(-1, 1),
		Min:        -1, Max: 1, Step: 0.01,
		Debounce: 100 * time.Millisecond,
	}}, facade)

	store.UpdateContinuous("strength", 0.5)
	if got := facade.setCount("distortStrength"); got != 0 {
		t.Fatalf("expected the continuous update parked, got %d pushes", got)
	}

	// A discrete commit of the value the burst already applied fires the
	// parked push instead of waiting out the window.
	store.UpdateParameter("strength", 0.5)
	if got := facade.setCount("distortStrength"); got != 1 {
		t.Fatalf("expected the commit to fire the parked push, got %d", got)
	}
	if v, _ := facade.lastSet("distortStrength"); v != 0.5 {
		t.Errorf("expected 0.5 pushed, got %v", v)
	}

	d.Flush()
	if got := facade.setCount("distortStrength"); got != 1 {
		t.Errorf("expected nothing left pending, got %d", got)
	}
}

func TestStore_CloseDropsMirrorSubscription(t *testing.T) {
	facade := newStubFacade()
	color, export, _ := mirroredStores(t, facade)

	export.Close()
	color.UpdateParameter("transparentBackground", true)

	if got := export.Signal("transparentBackground").Read(); got != false {
		t.Errorf("closed store must not receive mirror events, got %v", got)
	}
}

func TestStore_Values(t *testing.T) {
	facade := newStubFacade()
	store, _ := testStore("color", colorDefs(), facade)
	store.UpdateParameter("saturation", 0.9)

	values := store.Values()
	if values["saturation"] != 0.9 || values["backgroundColor"] != "#000000" {
		t.Errorf("unexpected snapshot: %v", values)
	}
}
