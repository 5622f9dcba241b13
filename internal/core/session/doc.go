// Package session runs one perflog session at a time.
//
// An Orchestrator owns the active session slot. A session binds a data
// logger (sampler) and a save watcher (archiver) to the directory
// sessions/<name>. Both components are initialized independently and then
// run together until StopLogging or CloseSession:
//
//	o := session.NewOrchestrator(cfg)
//	o.CreateSession("campaign")
//	o.InitializeDataLogger()
//	o.SetupSaveWatcher(savedGamesDir)
//	o.StartLogging(ctx)
//	...
//	o.ExportCSV(1, false)
//	o.CloseSession()
//
// The host is kept awake while a session is running.
package session
