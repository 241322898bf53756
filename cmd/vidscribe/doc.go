// Command vidscribe runs the media transcription service.
//
//	vidscribe serve                 start the HTTP and live-update server
//	vidscribe process talk.mp4      run one file locally, printing progress as JSON lines
//	vidscribe version               print build information
package main
