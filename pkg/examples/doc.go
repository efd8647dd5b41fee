// Package examples provides a small sample domain built on the consistency
// manager: a stream of likeable updates, a fake network feed that produces
// it, and two views that keep their copies consistent.
//
// The sample shows:
//   - Implementing model.Node for a parent with optional children
//   - Registering listeners once their model is loaded
//   - Publishing a local edit (like/unlike) to every view holding it
//   - Deleting a model and pausing a view that is off screen
//
// cm-demo drives these types from an interactive console.
package examples
