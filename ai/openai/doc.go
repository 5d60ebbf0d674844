// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package openai implements the ai service interfaces for OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM, and similar).
//
// The Embedder wraps langchaingo's embedding client. The Summarizer drives a
// chat model in JSON mode and tolerates the usual LLM output quirks: stray
// code fences and mildly malformed JSON are stripped or repaired, with up to
// three parse attempts before giving up.
package openai
