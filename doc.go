// Package marionette renders and manages real-time, parameter-driven 2D
// animated characters ("avatars") on an [Ebitengine] stage.
//
// Marionette owns the orchestration layer around an external deformation
// runtime: extracting per-part mesh geometry with texture-atlas UV
// remapping, managing up to a fixed number of concurrently loaded character
// instances, routing drag/zoom/hit-test input to the focused instance, and
// scheduling classified motion clips (including randomized idle playback).
//
// # Quick start
//
// Assemble a [Stage] and drive it from your game loop:
//
//	cfg := marionette.DefaultConfig()
//	client := marionette.NewClient(cfg.Endpoints)
//	loader := marionette.NewLoader(nil, myRuntimeFactory, client, cfg)
//	stage := marionette.NewStage(cfg, loader, client, myMotionPlayer, nil)
//
//	// inside ebiten.Game:
//	func (g *Game) Update() error         { return g.stage.Update() }
//	func (g *Game) Draw(s *ebiten.Image)  { g.stage.Draw(s) }
//
// Characters are added through the registry:
//
//	id, err := stage.Registry().Create(marionette.ModelLocator{
//		Name: "haru", ConfigFile: "/models/haru/haru.model3.json",
//	})
//
// # What marionette is not
//
// The per-vertex skeletal deformation math lives behind the
// [DeformationRuntime] interface and is treated as a black box. Marionette
// hands finished mesh buffers to Ebitengine; it implements neither a
// deformation engine nor a rasterizer.
//
// [Ebitengine]: https://ebitengine.org
package marionette
