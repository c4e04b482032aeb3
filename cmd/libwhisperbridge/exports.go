package main

/*
#include <stdbool.h>
#include <stddef.h>
*/
import "C"

import (
	"math"
	"unsafe"

	"github.com/obiente/translate/whisperbridge/internal/cabi"
)

//export whisper_bridge_init
func whisper_bridge_init(modelPath *C.char) C.int {
	if modelPath == nil {
		return -1
	}
	b := instance()
	id := b.Init(cabi.String(unsafe.Pointer(modelPath)))
	if id > math.MaxInt32 {
		// ids are never reused, so this only happens after 2^31 inits
		b.Free(id)
		return -1
	}
	return C.int(id)
}

//export whisper_bridge_free
func whisper_bridge_free(id C.int) C.bool {
	return C.bool(instance().Free(int(id)))
}

//export whisper_bridge_is_valid
func whisper_bridge_is_valid(id C.int) C.bool {
	return C.bool(instance().IsValid(int(id)))
}

//export whisper_bridge_process_audio
func whisper_bridge_process_audio(id C.int, audio *C.float, audioLen C.int, language *C.char, result *C.char, resultSize C.int) C.bool {
	buf, ok := cabi.Buffer(unsafe.Pointer(result), int(resultSize))
	if !ok {
		return false
	}
	return C.bool(instance().ProcessAudio(int(id),
		cabi.Float32s(unsafe.Pointer(audio), int(audioLen)),
		cabi.OptionalString(unsafe.Pointer(language)), buf))
}

//export whisper_bridge_process_audio_sliding_window
func whisper_bridge_process_audio_sliding_window(id C.int, audio *C.float, audioLen C.int, windowSec, stepSec C.float, sampleRate C.int, language *C.char, result *C.char, resultSize C.int) C.bool {
	buf, ok := cabi.Buffer(unsafe.Pointer(result), int(resultSize))
	if !ok {
		return false
	}
	return C.bool(instance().ProcessAudioSlidingWindow(int(id),
		cabi.Float32s(unsafe.Pointer(audio), int(audioLen)),
		float32(windowSec), float32(stepSec), int(sampleRate),
		cabi.OptionalString(unsafe.Pointer(language)), buf))
}

//export whisper_bridge_validate_word
func whisper_bridge_validate_word(word *C.char, wordList **C.char, wordCount C.int) C.bool {
	if word == nil {
		return false
	}
	words := cabi.Strings(unsafe.Pointer(wordList), int(wordCount))
	return C.bool(instance().ValidateWord(cabi.String(unsafe.Pointer(word)), words))
}

//export whisper_bridge_get_model_info
func whisper_bridge_get_model_info(id C.int, info *C.char, infoSize C.int) C.bool {
	buf, ok := cabi.Buffer(unsafe.Pointer(info), int(infoSize))
	if !ok {
		return false
	}
	return C.bool(instance().GetModelInfo(int(id), buf))
}
