// Package publish streams frame results to a remote viewer over socket.io.
package publish
