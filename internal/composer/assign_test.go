package composer

import "testing"

func newTestAssigner() (*PlaneAssigner, *fakeBuffers) {
	buffers := newFakeBuffers()
	buffers.put(testVideoHandle, FormatNV12, Stride{Y: 2048})
	buffers.put(testUIHandle, FormatRGBA8888, Stride{RGB: 7680})
	buffers.put(testFBHandle, FormatRGBA8888, Stride{RGB: 7680})
	return NewPlaneAssigner(buffers, nil), buffers
}

func testPool() (primary, sprite, overlay *fakePlane, pool []AssignablePlane) {
	primary = &fakePlane{typ: PlanePrimary, ctx: 1}
	sprite = &fakePlane{typ: PlaneSprite, ctx: 2}
	overlay = &fakePlane{typ: PlaneOverlay, ctx: 3}
	return primary, sprite, overlay, []AssignablePlane{primary, sprite, overlay}
}

func TestPlaneAssigner_Assign(t *testing.T) {
	t.Run("video_and_ui", func(t *testing.T) {
		pa, buffers := newTestAssigner()
		primary, sprite, overlay, pool := testPool()
		d := videoDisplay(fullScreen())

		lp := pa.Assign(d, pool, true, false)

		if lp.Plane(2) != primary {
			t.Error("framebuffer target should take the primary plane")
		}
		if lp.Plane(0) != overlay {
			t.Error("NV12 video should take the overlay plane")
		}
		if lp.Plane(1) != sprite {
			t.Error("UI layer should take the sprite plane")
		}
		if d.Layers[0].CompositionType != CompositionOverlay || d.Layers[1].CompositionType != CompositionOverlay {
			t.Errorf("expected overlay composition, got %v and %v", d.Layers[0].CompositionType, d.Layers[1].CompositionType)
		}
		if d.Layers[2].CompositionType != CompositionFramebufferTarget {
			t.Error("framebuffer target type must be left alone")
		}
		if lp.Assigned() != 3 {
			t.Errorf("expected 3 assigned planes, got %d", lp.Assigned())
		}
		if buffers.locks != buffers.unlocks {
			t.Errorf("unbalanced buffer locks: %d locks, %d unlocks", buffers.locks, buffers.unlocks)
		}
	})

	t.Run("overlay_not_allowed", func(t *testing.T) {
		pa, _ := newTestAssigner()
		_, _, _, pool := testPool()
		d := videoDisplay(fullScreen())

		lp := pa.Assign(d, pool, false, false)

		if lp.Plane(0) != nil {
			t.Error("video must not get a plane while overlays are suppressed")
		}
		if d.Layers[0].CompositionType != CompositionFramebuffer {
			t.Errorf("expected framebuffer composition, got %v", d.Layers[0].CompositionType)
		}
	})

	t.Run("skip_and_trick_layers", func(t *testing.T) {
		pa, _ := newTestAssigner()
		_, _, _, pool := testPool()
		d := videoDisplay(fullScreen())
		d.Layers[0].Flags |= FlagTrickMode
		d.Layers[1].Flags |= FlagSkipLayer

		lp := pa.Assign(d, pool, true, false)

		for i := 0; i < 2; i++ {
			if lp.Plane(i) != nil {
				t.Errorf("layer %d should not get a plane", i)
			}
			if d.Layers[i].CompositionType != CompositionFramebuffer {
				t.Errorf("layer %d: expected framebuffer composition, got %v", i, d.Layers[i].CompositionType)
			}
		}
	})

	t.Run("cleared_layers", func(t *testing.T) {
		pa, _ := newTestAssigner()
		_, _, _, pool := testPool()
		d := uiDisplay()
		d.Layers[0].Hints |= HintClearFB
		d.Layers[0].CompositionType = CompositionOverlay

		lp := pa.Assign(d, pool, true, false)

		if lp.Plane(0) != nil {
			t.Error("cleared layer should not get a plane")
		}
		if d.Layers[0].CompositionType != CompositionOverlay {
			t.Errorf("cleared layer type should be kept, got %v", d.Layers[0].CompositionType)
		}
	})

	t.Run("unknown_buffer", func(t *testing.T) {
		pa, _ := newTestAssigner()
		_, _, _, pool := testPool()
		d := uiDisplay()
		d.Layers[0].Handle = 0x999

		lp := pa.Assign(d, pool, true, false)

		if lp.Plane(0) != nil || d.Layers[0].CompositionType != CompositionFramebuffer {
			t.Error("layer with unknown buffer should fall back to the GPU")
		}
	})

	t.Run("planes_exhausted", func(t *testing.T) {
		pa, _ := newTestAssigner()
		_, sprite, _, pool := testPool()
		d := uiDisplay()
		extra := *d.Layers[0]
		d.Layers = append([]*Layer{&extra}, d.Layers...)

		lp := pa.Assign(d, pool, true, false)

		if lp.Plane(0) != sprite {
			t.Error("first UI layer should take the sprite")
		}
		if lp.Plane(1) != nil || d.Layers[1].CompositionType != CompositionFramebuffer {
			t.Error("second UI layer should fall back to the GPU")
		}
	})

	t.Run("nil_display", func(t *testing.T) {
		pa, _ := newTestAssigner()
		if lp := pa.Assign(nil, nil, true, false); lp.Assigned() != 0 {
			t.Error("nil display should produce an empty assignment")
		}
	})
}

func TestPlaneAssigner_Assign_hide_video(t *testing.T) {
	pa, _ := newTestAssigner()
	primary, sprite, _, pool := testPool()
	d := videoDisplay(fullScreen())

	lp := pa.Assign(d, pool, true, true)

	if lp.Plane(0) != nil {
		t.Error("hidden video must not get a plane")
	}
	if d.Layers[0].CompositionType != CompositionOverlay {
		t.Errorf("hidden video must stay off the GPU, got %v", d.Layers[0].CompositionType)
	}
	if lp.Plane(1) != sprite || lp.Plane(2) != primary {
		t.Error("non-video layers should be assigned as usual")
	}
}

func TestLayerPlanes_nil(t *testing.T) {
	var lp *LayerPlanes
	if lp.Plane(0) != nil || lp.Assigned() != 0 {
		t.Error("nil assignment should have no planes")
	}
}

func TestLayerPlanes_out_of_range(t *testing.T) {
	lp := NewLayerPlanes(1)
	p := &fakePlane{}
	lp.Set(5, p)
	lp.Set(-1, p)
	if lp.Plane(5) != nil || lp.Plane(-1) != nil || lp.Assigned() != 0 {
		t.Error("out of range indices must be ignored")
	}
}
